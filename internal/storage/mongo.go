package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI                    string
	Database               string
	ParticipantsCollection string
	TasksCollection        string
	ConnectTimeout         time.Duration
}

// MongoRepository implements Repository on a MongoDB database
type MongoRepository struct {
	client       *mongo.Client
	participants *mongo.Collection
	tasks        *mongo.Collection
}

// NewMongoRepository connects to MongoDB and pings the primary
func NewMongoRepository(ctx context.Context, cfg MongoConfig) (*MongoRepository, error) {
	if cfg.Database == "" {
		cfg.Database = "recruitment"
	}
	if cfg.ParticipantsCollection == "" {
		cfg.ParticipantsCollection = "participants"
	}
	if cfg.TasksCollection == "" {
		cfg.TasksCollection = "tasks"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	return &MongoRepository{
		client:       client,
		participants: db.Collection(cfg.ParticipantsCollection),
		tasks:        db.Collection(cfg.TasksCollection),
	}, nil
}

// Ping checks database connectivity
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Migrate ensures the unique and lookup indexes exist
func (r *MongoRepository) Migrate(ctx context.Context) error {
	_, err := r.participants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "registrationNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "domain", Value: 1}, {Key: "year", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create participant indexes: %w", err)
	}

	_, err = r.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "domain", Value: 1}, {Key: "year", Value: 1}}},
		{Keys: bson.D{{Key: "subdomain", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	return nil
}

// --- Participants ---

// CreateParticipant inserts a new participant document
func (r *MongoRepository) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if _, err := r.participants.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			index := duplicateIndexName(err)
			return &DuplicateKeyError{Field: fieldForIndex(index), Index: index}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// GetParticipantByEmail retrieves a participant by email
func (r *MongoRepository) GetParticipantByEmail(ctx context.Context, email string) (*models.Participant, error) {
	return r.findOneParticipant(ctx, bson.M{"email": email})
}

// FindParticipant retrieves the first participant matching the registration number or the email
func (r *MongoRepository) FindParticipant(ctx context.Context, registrationNumber, email string) (*models.Participant, error) {
	var or bson.A
	if registrationNumber != "" {
		or = append(or, bson.M{"registrationNumber": registrationNumber})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, nil
	}
	return r.findOneParticipant(ctx, bson.M{"$or": or})
}

func (r *MongoRepository) findOneParticipant(ctx context.Context, filter bson.M) (*models.Participant, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var p models.Participant
	if err := r.participants.FindOne(ctx, filter, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

// UpdateParticipantStatus sets the status of an existing participant
func (r *MongoRepository) UpdateParticipantStatus(ctx context.Context, id string, status models.ParticipantStatus) error {
	result, err := r.participants.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListParticipants returns participants matching filters, newest first
func (r *MongoRepository) ListParticipants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error) {
	filter := bson.M{}
	if filters.Status != "" {
		filter["status"] = filters.Status
	}
	if filters.Domain != "" {
		filter["domain"] = bson.M{"$in": models.DomainSpellings(string(filters.Domain))}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filters.Limit > 0 {
		opts.SetLimit(int64(filters.Limit))
	}
	if filters.Offset > 0 {
		opts.SetSkip(int64(filters.Offset))
	}

	cursor, err := r.participants.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer cursor.Close(ctx)

	var participants []*models.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	return participants, nil
}

// CountParticipants returns the number of registered participants
func (r *MongoRepository) CountParticipants(ctx context.Context) (int64, error) {
	count, err := r.participants.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// RecentParticipants returns the most recent registrations
func (r *MongoRepository) RecentParticipants(ctx context.Context, limit int) ([]*models.Participant, error) {
	return r.ListParticipants(ctx, models.ParticipantFilters{Limit: limit})
}

// --- Tasks ---

// UpsertTask inserts a task or replaces the stored copy with the same ID
func (r *MongoRepository) UpsertTask(ctx context.Context, t *models.Task) error {
	t.Normalize()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.tasks.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, opts); err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

// FindTasks returns tasks whose domain and year are in the filter sets
func (r *MongoRepository) FindTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	if len(filter.Domains) == 0 || len(filter.Years) == 0 {
		return nil, nil
	}
	query := bson.M{
		"domain": bson.M{"$in": filter.Domains},
		"year":   bson.M{"$in": filter.Years},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "title", Value: 1}})
	return r.findTasks(ctx, query, opts)
}

// ListTasks returns the whole task catalog
func (r *MongoRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "domain", Value: 1}, {Key: "year", Value: 1}, {Key: "title", Value: 1}})
	return r.findTasks(ctx, bson.M{}, opts)
}

func (r *MongoRepository) findTasks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Task, error) {
	cursor, err := r.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	for _, t := range tasks {
		t.Normalize()
	}
	return tasks, nil
}

var dupIndexPattern = regexp.MustCompile(`index: (\S+)`)

// duplicateIndexName pulls the violated index name out of an E11000 write error
func duplicateIndexName(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if m := dupIndexPattern.FindStringSubmatch(e.Message); m != nil {
				return m[1]
			}
		}
	}
	if m := dupIndexPattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}

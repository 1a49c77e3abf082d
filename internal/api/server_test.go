package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/config"
	"github.com/gcsrm/recruitment-portal/internal/health"
	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/recruitment"
	"github.com/gcsrm/recruitment-portal/internal/sheet"
	"github.com/gcsrm/recruitment-portal/internal/storage"
)

const adminKey = "admin-secret-key"

var ist = time.FixedZone("IST", 5*3600+1800)

type testEnv struct {
	server   *Server
	repo     *storage.MemoryRepository
	upstream *httptest.Server
	calls    *atomic.Int32
	now      *time.Time
}

// newTestEnv wires the server against an in-memory store and a fake sheet endpoint
func newTestEnv(t *testing.T, upstreamStatus int) *testEnv {
	t.Helper()

	calls := &atomic.Int32{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(upstreamStatus)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result":       "recorded",
			"selectedTask": payload["selectedTask"],
		})
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Server:   config.ServerConfig{Environment: "test"},
		Database: config.DatabaseConfig{Name: "Recruitment"},
		Admin:    config.AdminConfig{APIKey: adminKey},
	}

	now := time.Date(2025, 8, 27, 12, 0, 0, 0, ist)
	env := &testEnv{repo: storage.NewMemoryRepository(), upstream: upstream, calls: calls, now: &now}
	clock := recruitment.WithClock(func() time.Time { return *env.now })

	registry := health.NewRegistry()
	registry.Register("database", health.CheckerFunc(env.repo.Ping))

	env.server = NewServer(cfg, Dependencies{
		Repo: env.repo,
		Registrar: recruitment.NewRegistrar(env.repo, recruitment.Window{
			OpensAt:  config.DefaultRegistrationOpensAt,
			ClosesAt: config.DefaultRegistrationClosesAt,
		}, clock),
		Resolver: recruitment.NewResolver(env.repo),
		Forwarder: recruitment.NewForwarder(env.repo, sheet.NewClient(upstream.URL), nil, time.Second, recruitment.Window{
			OpensAt:  config.DefaultSubmissionOpensAt,
			ClosesAt: config.DefaultSubmissionClosesAt,
		}, clock),
		Health: registry,
	})

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func registration() map[string]interface{} {
	return map[string]interface{}{
		"name":               "A B",
		"email":              "ab1234@srmist.edu.in",
		"phone":              "9876543210",
		"year":               "2nd Year",
		"domain":             "Technical",
		"degreeWithBranch":   "B.Tech CSE",
		"registrationNumber": "RA2411000000001",
	}
}

func seedTask(t *testing.T, repo storage.Repository, id string, year models.TaskYear, link string) {
	t.Helper()
	err := repo.UpsertTask(context.Background(), &models.Task{
		ID: id, Title: id, Description: "d", Guidelines: "g", TaskType: "project",
		Domain: models.DomainTechnical, Year: year, Link: link,
	})
	if err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	decode(t, rec, &resp)
	if !resp.Success || resp.Data["status"] != "healthy" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestStoreHealth(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp storeHealth
	decode(t, rec, &resp)
	if resp.Status != "ok" || !resp.Database.Connected || resp.Database.Name != "Recruitment" || resp.Environment != "test" {
		t.Errorf("unexpected health %+v", resp)
	}

	env.repo.Close()
	rec = env.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	decode(t, rec, &resp)
	if resp.Status != "error" || resp.Database.Connected || resp.Checks["database"] != "unavailable" {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestStoreHealthDegraded(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	env.server.health.Register("redis", health.CheckerFunc(func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}))

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 while only redis is down, got %d", rec.Code)
	}

	var resp storeHealth
	decode(t, rec, &resp)
	if resp.Status != "degraded" || !resp.Database.Connected {
		t.Errorf("unexpected health %+v", resp)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["redis"] != "unavailable" || len(resp.Checks) != 2 {
		t.Errorf("unexpected checks %v", resp.Checks)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("checker error leaked into the response")
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	rec := env.do(t, http.MethodPost, "/api/register", registration())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.RegistrationResponse
	decode(t, rec, &resp)
	if !resp.Success || resp.User == nil || resp.User.Status != models.StatusRegistered {
		t.Errorf("unexpected response %s", rec.Body.String())
	}

	// same email again
	rec = env.do(t, http.MethodPost, "/api/register", registration())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	decode(t, rec, &resp)
	if resp.Success || resp.Code != "duplicate_key" || resp.Fields["email"] == "" {
		t.Errorf("unexpected duplicate response %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "E11000") || strings.Contains(rec.Body.String(), "UNIQUE") {
		t.Error("raw store error leaked")
	}

	n, _ := env.repo.CountParticipants(context.Background())
	if n != 1 {
		t.Errorf("expected one participant, got %d", n)
	}
}

func TestRegisterDuplicateRegistrationNumber(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	env.do(t, http.MethodPost, "/api/register", registration())

	body := registration()
	body["email"] = "other@srmist.edu.in"
	rec := env.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp models.RegistrationResponse
	decode(t, rec, &resp)
	if resp.Fields["registrationNumber"] == "" {
		t.Errorf("expected registrationNumber field, got %s", rec.Body.String())
	}
}

func TestRegisterWindow(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	*env.now = config.DefaultRegistrationOpensAt.Add(-time.Hour)
	rec := env.do(t, http.MethodPost, "/api/register", registration())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp models.RegistrationResponse
	decode(t, rec, &resp)
	if resp.Code != "window_not_open" || resp.OpensAt == nil || !resp.OpensAt.Equal(config.DefaultRegistrationOpensAt) {
		t.Errorf("unexpected response %s", rec.Body.String())
	}

	*env.now = config.DefaultRegistrationClosesAt.Add(time.Second)
	rec = env.do(t, http.MethodPost, "/api/register", registration())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	decode(t, rec, &resp)
	if resp.Code != "window_closed" || resp.ClosesAt == nil {
		t.Errorf("unexpected response %s", rec.Body.String())
	}

	// late client timestamp while the server window is still open
	*env.now = config.DefaultRegistrationClosesAt.Add(-time.Minute)
	body := registration()
	body["submissionTime"] = config.DefaultRegistrationClosesAt.Add(time.Minute).UnixMilli()
	rec = env.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for late submissionTime, got %d", rec.Code)
	}

	n, _ := env.repo.CountParticipants(context.Background())
	if n != 0 {
		t.Errorf("expected no participants, got %d", n)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	body := registration()
	body["phone"] = "123"
	delete(body, "name")

	rec := env.do(t, http.MethodPost, "/api/register", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp models.RegistrationResponse
	decode(t, rec, &resp)
	if resp.Fields["phone"] == "" || resp.Fields["name"] == "" {
		t.Errorf("expected phone and name field errors, got %v", resp.Fields)
	}

	rec = env.do(t, http.MethodPost, "/api/register", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestTaskLookup(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	seedTask(t, env.repo, "second", models.TaskYearSecond, `"https://example.com/x"`)
	seedTask(t, env.repo, "first", models.TaskYearFirst, "")
	seedTask(t, env.repo, "any", models.TaskYearBoth, "")
	env.do(t, http.MethodPost, "/api/register", registration())

	rec := env.do(t, http.MethodGet, "/api/task?email=ab1234@srmist.edu.in", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var dashboard models.Dashboard
	decode(t, rec, &dashboard)
	if dashboard.RegNo != "RA2411000000001" || dashboard.Dept != "B.Tech CSE" || dashboard.Status != models.StatusRegistered {
		t.Errorf("unexpected dashboard %+v", dashboard)
	}
	if len(dashboard.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(dashboard.Tasks))
	}
	for _, task := range dashboard.Tasks {
		if task.ID == "second" && task.Link != "https://example.com/x" {
			t.Errorf("link not cleaned: %q", task.Link)
		}
	}
}

func TestTaskLookupErrors(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/api/task", http.StatusBadRequest, "Email is required"},
		{"/api/task?email=ghost@srmist.edu.in", http.StatusNotFound, "Participant not found"},
	}

	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, tt.path, nil)
		if rec.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.status, rec.Code)
		}
		var resp messageResponse
		decode(t, rec, &resp)
		if resp.Message != tt.message {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.message, resp.Message)
		}
	}

	failing := &failingRepo{MemoryRepository: env.repo}
	env.server.resolver = recruitment.NewResolver(failing)
	rec := env.do(t, http.MethodGet, "/api/task?email=a@b.co", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Error("internal error detail leaked")
	}
}

type failingRepo struct {
	*storage.MemoryRepository
}

func (failingRepo) GetParticipantByEmail(context.Context, string) (*models.Participant, error) {
	return nil, errors.New("connection reset by peer")
}

func TestSheetSubmission(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	env.do(t, http.MethodPost, "/api/register", registration())

	*env.now = time.Date(2025, 9, 2, 10, 0, 0, 0, ist)
	payload := map[string]interface{}{
		"registrationNumber": "RA2411000000001",
		"github":             "https://github.com/ab/api",
		"selectedTask":       "64f0c1",
		"selectedTaskTitle":  "REST API",
	}

	rec := env.do(t, http.MethodPost, "/api/sheet", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected relayed 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type not relayed: %q", ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header on relay")
	}

	var upstream map[string]interface{}
	decode(t, rec, &upstream)
	if upstream["selectedTask"] != "REST API" {
		t.Errorf("title not forwarded as selectedTask: %v", upstream)
	}

	p, _ := env.repo.GetParticipantByEmail(context.Background(), "ab1234@srmist.edu.in")
	if p.Status != models.StatusTaskSubmitted {
		t.Errorf("status = %q, want taskSubmitted", p.Status)
	}

	rec = env.do(t, http.MethodPost, "/api/sheet", payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if env.calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1", env.calls.Load())
	}
}

func TestSheetUpstreamFailureRelayed(t *testing.T) {
	env := newTestEnv(t, http.StatusInternalServerError)
	env.do(t, http.MethodPost, "/api/register", registration())
	*env.now = time.Date(2025, 9, 2, 10, 0, 0, 0, ist)

	rec := env.do(t, http.MethodPost, "/api/sheet", map[string]interface{}{"email": "ab1234@srmist.edu.in"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected upstream 500 relayed, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "recorded") {
		t.Errorf("upstream body not relayed: %s", rec.Body.String())
	}

	p, _ := env.repo.GetParticipantByEmail(context.Background(), "ab1234@srmist.edu.in")
	if p.Status != models.StatusRegistered {
		t.Errorf("status = %q, want registered", p.Status)
	}
}

func TestSheetErrors(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	env.do(t, http.MethodPost, "/api/register", registration())

	// still in the registration window
	rec := env.do(t, http.MethodPost, "/api/sheet", map[string]interface{}{"email": "ab1234@srmist.edu.in"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp submissionError
	decode(t, rec, &resp)
	if resp.OpensAt == nil || !resp.OpensAt.Equal(config.DefaultSubmissionOpensAt) {
		t.Errorf("expected opensAt, got %s", rec.Body.String())
	}

	*env.now = config.DefaultSubmissionClosesAt.Add(time.Second)
	rec = env.do(t, http.MethodPost, "/api/sheet", map[string]interface{}{"email": "ab1234@srmist.edu.in"})
	decode(t, rec, &resp)
	if rec.Code != http.StatusForbidden || resp.ClosedAt == nil {
		t.Errorf("expected 403 with closedAt, got %d %s", rec.Code, rec.Body.String())
	}

	*env.now = time.Date(2025, 9, 2, 10, 0, 0, 0, ist)
	tests := []struct {
		name   string
		body   interface{}
		status int
		error  string
	}{
		{"no identifier", map[string]interface{}{"github": "x"}, http.StatusBadRequest, "registrationNumber or email required"},
		{"unknown participant", map[string]interface{}{"email": "ghost@x.in"}, http.StatusNotFound, "Participant not found"},
		{"malformed body", "{", http.StatusBadRequest, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/sheet", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var resp submissionError
			decode(t, rec, &resp)
			if resp.Error != tt.error {
				t.Errorf("expected %q, got %q", tt.error, resp.Error)
			}
		})
	}

	if env.calls.Load() != 0 {
		t.Errorf("upstream called %d times, want 0", env.calls.Load())
	}
}

func TestSheetUnconfigured(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	env.do(t, http.MethodPost, "/api/register", registration())
	*env.now = time.Date(2025, 9, 2, 10, 0, 0, 0, ist)

	env.server.forwarder = recruitment.NewForwarder(env.repo, sheet.NewClient(""), nil, time.Second,
		recruitment.Window{OpensAt: config.DefaultSubmissionOpensAt, ClosesAt: config.DefaultSubmissionClosesAt},
		recruitment.WithClock(func() time.Time { return *env.now }))

	rec := env.do(t, http.MethodPost, "/api/sheet", map[string]interface{}{"email": "ab1234@srmist.edu.in"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp submissionError
	decode(t, rec, &resp)
	if resp.Error != "Sheet endpoint not configured on server" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestSheetOptions(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	rec := env.do(t, http.MethodOptions, "/api/sheet", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "POST, OPTIONS" {
		t.Errorf("unexpected allow methods %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}

	preflight := env.do(t, http.MethodOptions, "/api/sheet", nil,
		"Origin", "https://recruitment.example",
		"Access-Control-Request-Method", "POST",
	)
	if preflight.Code != http.StatusNoContent {
		t.Errorf("expected preflight 204, got %d", preflight.Code)
	}
	if preflight.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight missing Access-Control-Allow-Origin")
	}

	// routes without their own OPTIONS handler still pass preflight
	registerPreflight := env.do(t, http.MethodOptions, "/api/register", nil,
		"Origin", "https://recruitment.example",
		"Access-Control-Request-Method", "POST",
		"Access-Control-Request-Headers", "Content-Type",
	)
	if registerPreflight.Code != http.StatusNoContent {
		t.Errorf("expected register preflight 204, got %d", registerPreflight.Code)
	}
	if registerPreflight.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("register preflight missing Access-Control-Allow-Origin")
	}
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	seedTask(t, env.repo, "any", models.TaskYearBoth, "")
	env.do(t, http.MethodPost, "/api/register", registration())

	rec := env.do(t, http.MethodGet, "/api/admin/stats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, "Authorization", "Bearer wrong-key")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, "Authorization", "Bearer "+adminKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats struct {
		Data models.Stats `json:"data"`
	}
	decode(t, rec, &stats)
	if stats.Data.TotalUsers != 1 || len(stats.Data.RecentRegistrations) != 1 {
		t.Errorf("unexpected stats %+v", stats.Data)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/participants?status=registered&domain=tech", nil, "X-API-Key", adminKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	decode(t, rec, &list)
	if list.Data.Count != 1 {
		t.Errorf("expected 1 participant, got %d", list.Data.Count)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/participants?status=bogus", nil, "X-API-Key", adminKey)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/tasks", nil, "X-API-Key", adminKey)
	decode(t, rec, &list)
	if rec.Code != http.StatusOK || list.Data.Count != 1 {
		t.Errorf("unexpected tasks response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesDisabledWithoutKey(t *testing.T) {
	repo := storage.NewMemoryRepository()
	s := NewServer(&config.Config{}, Dependencies{Repo: repo})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestEndToEndOverHTTP(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	seedTask(t, env.repo, "api", models.TaskYearSecond, "")
	srv := httptest.NewServer(env.server.Router())
	defer srv.Close()

	post := func(path string, body interface{}) *http.Response {
		data, _ := json.Marshal(body)
		resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("POST %s failed: %v", path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	if resp := post("/api/register", registration()); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/task?email=ab1234@srmist.edu.in")
	if err != nil {
		t.Fatalf("GET task failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("task lookup: %d", resp.StatusCode)
	}

	*env.now = time.Date(2025, 9, 2, 10, 0, 0, 0, ist)
	if resp := post("/api/sheet", map[string]interface{}{"email": "ab1234@srmist.edu.in"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d", resp.StatusCode)
	}
	if resp := post("/api/sheet", map[string]interface{}{"email": "ab1234@srmist.edu.in"}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("resubmit: %d", resp.StatusCode)
	}
}

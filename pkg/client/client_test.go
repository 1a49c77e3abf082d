package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegistrationRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email == "taken@x.in" {
			writeJSON(w, http.StatusConflict, models.RegistrationResponse{
				Error:  "Email is already registered",
				Code:   "duplicate_key",
				Fields: map[string]string{"email": "Email is already registered"},
			})
			return
		}
		writeJSON(w, http.StatusCreated, models.RegistrationResponse{
			Success: true,
			User:    &models.Participant{ID: "p1", Email: req.Email, Status: models.StatusRegistered},
		})
	})
	c := newTestServer(t, mux)

	p, err := c.Register(context.Background(), models.RegistrationRequest{Email: "new@x.in"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if p.ID != "p1" || p.Status != models.StatusRegistered {
		t.Errorf("unexpected participant %+v", p)
	}

	_, err = c.Register(context.Background(), models.RegistrationRequest{Email: "taken@x.in"})
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 APIError, got %v", err)
	}
	apiErr := err.(*APIError)
	if apiErr.Code != "duplicate_key" || apiErr.Fields["email"] == "" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestTasks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/task", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "a+b@x.in" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Participant not found"})
			return
		}
		writeJSON(w, http.StatusOK, models.NewDashboard(&models.Participant{Email: "a+b@x.in"}, nil))
	})
	c := newTestServer(t, mux)

	dashboard, err := c.Tasks(context.Background(), "a+b@x.in")
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if dashboard.Email != "a+b@x.in" || dashboard.Tasks == nil {
		t.Errorf("unexpected dashboard %+v", dashboard)
	}

	_, err = c.Tasks(context.Background(), "ghost@x.in")
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
	if err.(*APIError).Message != "Participant not found" {
		t.Errorf("unexpected message %q", err.(*APIError).Message)
	}
}

func TestSubmit(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sheet", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Task already submitted"})
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	c := newTestServer(t, mux)

	result, err := c.Submit(context.Background(), map[string]interface{}{"email": "a@x.in"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.StatusCode != http.StatusOK || string(result.Body) != "ok" || result.ContentType != "text/plain" {
		t.Errorf("unexpected result %+v", result)
	}

	result, err = c.Submit(context.Background(), map[string]interface{}{"email": "a@x.in"})
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}
	if result == nil || err.(*APIError).Message != "Task already submitted" {
		t.Errorf("unexpected result %+v / %v", result, err)
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "database": map[string]interface{}{"connected": true}})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "error"})
	})
	c := newTestServer(t, mux)

	h, err := c.Health(context.Background())
	if err != nil || h.Status != "ok" || !h.Database.Connected {
		t.Fatalf("unexpected health %+v, %v", h, err)
	}

	healthy = false
	h, err = c.Health(context.Background())
	if !IsStatus(err, http.StatusServiceUnavailable) || h == nil || h.Status != "error" {
		t.Errorf("expected decoded 503, got %+v, %v", h, err)
	}
}

func TestAdmin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"error":   map[string]string{"code": "unauthorized", "message": "Invalid API key"},
			})
			return
		}
		switch r.URL.Path {
		case "/api/admin/stats":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": models.Stats{TotalUsers: 3}})
		case "/api/admin/participants":
			if r.URL.Query().Get("status") != "registered" || r.URL.Query().Get("limit") != "10" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
				"participants": []*models.Participant{{ID: "p1"}},
			}})
		case "/api/admin/tasks":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
				"tasks": []*models.Task{{ID: "t1"}, {ID: "t2"}},
			}})
		}
	})
	c := newTestServer(t, mux)
	ctx := context.Background()

	stats, err := c.Stats(ctx)
	if err != nil || stats.TotalUsers != 3 {
		t.Fatalf("unexpected stats %+v, %v", stats, err)
	}

	participants, err := c.Participants(ctx, ListOptions{Status: "registered", Limit: 10})
	if err != nil || len(participants) != 1 {
		t.Fatalf("unexpected participants %v, %v", participants, err)
	}

	tasks, err := c.ListTasks(ctx)
	if err != nil || len(tasks) != 2 {
		t.Fatalf("unexpected tasks %v, %v", tasks, err)
	}

	anon := NewClient(c.baseURL, "")
	_, err = anon.Stats(ctx)
	if !IsStatus(err, http.StatusUnauthorized) || err.(*APIError).Code != "unauthorized" {
		t.Errorf("expected 401, got %v", err)
	}
}

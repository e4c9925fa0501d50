package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oarbit/oarbit/internal/models"
	"github.com/oarbit/oarbit/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestHTTPClientQueryWorkouts verifies the HTTP client sends the right
// query params and correctly parses the JSON array response.
func TestHTTPClientQueryWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("type"); got != models.TypeErg {
				t.Errorf("type=%q, want erg", got)
			}
			if got := r.URL.Query().Get("start"); got == "" {
				t.Error("start param missing")
			}

			writeTestJSON(t, w, []models.Workout{
				{
					ID:        uuid.New().String(),
					Date:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
					Type:      models.TypeErg,
					DistanceM: models.Float(2000),
				},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	workouts, err := client.QueryWorkouts(context.Background(), start, end, 1, models.TypeErg)
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 {
		t.Fatalf("got %d workouts, want 1", len(workouts))
	}
	if workouts[0].DistanceM == nil || *workouts[0].DistanceM != 2000 {
		t.Errorf("distance = %v, want 2000", workouts[0].DistanceM)
	}
}

// TestHTTPClientGetWorkout verifies the detail endpoint decode tolerates
// the extra interval annotation the server attaches.
func TestHTTPClientGetWorkout(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]any{
				"id":         id.String(),
				"date":       "2026-03-14T09:00:00Z",
				"type":       models.TypeErg,
				"distance_m": 5000,
				"interval":   map[string]any{"is_interval": false},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	w, err := client.GetWorkout(context.Background(), id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w.ID != id.String() {
		t.Errorf("id = %s, want %s", w.ID, id)
	}
	if w.DistanceM == nil || *w.DistanceM != 5000 {
		t.Errorf("distance = %v, want 5000", w.DistanceM)
	}
}

// TestHTTPClientGetTrainingVolume verifies the bucket param is forwarded
// and the period array parses.
func TestHTTPClientGetTrainingVolume(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/volume": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("bucket"); got != "1 week" {
				t.Errorf("bucket=%q, want '1 week'", got)
			}
			writeTestJSON(t, w, []storage.VolumePeriod{
				{Period: "2026-03-09", Sessions: 4, Meters: 32000, Seconds: 7680},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	periods, err := client.GetTrainingVolume(context.Background(), start, end, "1 week", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(periods))
	}
	if periods[0].Meters != 32000 {
		t.Errorf("meters = %.0f, want 32000", periods[0].Meters)
	}
}

// TestHTTPClientErrorStatus verifies non-200 responses surface as errors.
func TestHTTPClientErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/volume": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	_, err := client.GetTrainingVolume(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), "", 1)
	if err == nil {
		t.Error("expected error for 500 response")
	}
}

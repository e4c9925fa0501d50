package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oarbit/oarbit/internal/analysis"
	"github.com/oarbit/oarbit/internal/ingest/ergo"
	"github.com/oarbit/oarbit/internal/models"
)

// defaultUserID scopes all queries until multi-user auth lands; tsnet
// already restricts who can reach the dashboard endpoints.
const defaultUserID = 1

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload ergo.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.ergo.Ingest(r.Context(), defaultUserID, &payload)
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	typeFilter := r.URL.Query().Get("type")
	workouts, err := s.db.QueryWorkouts(r.Context(), start, end, defaultUserID, typeFilter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// The merged view is what day-grouping consumers render: same-day
	// erg pieces that form one session collapse into a synthetic record.
	if r.URL.Query().Get("merged") == "true" {
		workouts = analysis.MergeSessions(workouts)
	}

	writeJSON(w, http.StatusOK, workouts)
}

// WorkoutDetail is a workout annotated with its detected interval
// structure for the detail view.
type WorkoutDetail struct {
	models.Workout
	Interval analysis.IntervalPattern `json:"interval"`
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, err := parseWorkoutID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	workout, err := s.db.GetWorkout(r.Context(), workoutID, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, buildDetail(*workout))
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, err := parseWorkoutID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	deleted, err := s.db.DeleteWorkout(r.Context(), workoutID, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bucket := r.URL.Query().Get("bucket")
	periods, err := s.db.GetTrainingVolume(r.Context(), start, end, bucket, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

// parseWorkoutID resolves a URL workout id to the underlying stored
// record, stripping the synthetic session prefix so session links land
// on their first piece.
func parseWorkoutID(id string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimPrefix(id, analysis.SessionIDPrefix))
}

// buildDetail runs interval detection once; every presentation surface
// consumes this single result rather than reclassifying locally.
func buildDetail(w models.Workout) WorkoutDetail {
	return WorkoutDetail{
		Workout:  w,
		Interval: analysis.DetectIntervals(w.Splits, w.WorkoutType),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 7 days
		end = time.Now()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}

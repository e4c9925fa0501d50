package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oarbit/oarbit/internal/models"
)

// TestParseWorkoutID verifies that synthetic session ids resolve to the
// underlying first piece's id, and garbage is rejected.
func TestParseWorkoutID(t *testing.T) {
	raw := "7b4a1c2e-9f3d-4a8b-b6c5-0d1e2f3a4b5c"

	id, err := parseWorkoutID(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != raw {
		t.Errorf("id = %s, want %s", id, raw)
	}

	id, err = parseWorkoutID("session:" + raw)
	if err != nil {
		t.Fatalf("unexpected error for session id: %v", err)
	}
	if id.String() != raw {
		t.Errorf("session id = %s, want %s", id, raw)
	}

	if _, err := parseWorkoutID("session:not-a-uuid"); err == nil {
		t.Error("expected error for malformed id")
	}
}

// TestBuildDetailAttachesInterval verifies the detail view carries the
// detector's result for the workout's splits and type hint.
func TestBuildDetailAttachesInterval(t *testing.T) {
	w := models.Workout{
		ID:          "w1",
		Date:        time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Type:        models.TypeErg,
		WorkoutType: "FixedDistanceInterval",
		Splits: []models.Split{
			{Number: 1, DistanceM: models.Float(2000), TimeSec: models.Float(460)},
			{Number: 2, DistanceM: models.Float(2000), TimeSec: models.Float(462)},
			{Number: 3, DistanceM: models.Float(2000), TimeSec: models.Float(465)},
		},
	}
	detail := buildDetail(w)
	if !detail.Interval.IsInterval {
		t.Fatal("expected interval detection on hinted workout")
	}
	if detail.Interval.Pattern != "3 x 2k" {
		t.Errorf("pattern = %q, want %q", detail.Interval.Pattern, "3 x 2k")
	}
}

// TestBuildDetailSteadyState verifies a plain workout gets an empty
// pattern rather than a spurious interval badge.
func TestBuildDetailSteadyState(t *testing.T) {
	w := models.Workout{
		ID:   "w1",
		Date: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Type: models.TypeErg,
	}
	detail := buildDetail(w)
	if detail.Interval.IsInterval || detail.Interval.Pattern != "" {
		t.Errorf("expected empty interval result, got %+v", detail.Interval)
	}
}

// TestParseTimeRangeDefaults verifies the last-7-days default when no
// start is given.
func TestParseTimeRangeDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/workouts", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	window := end.Sub(start)
	if window != 7*24*time.Hour {
		t.Errorf("window = %v, want 168h", window)
	}
}

// TestParseTimeRangeDateOnly verifies date-only bounds parse, with the
// end exclusive at the following midnight.
func TestParseTimeRangeDateOnly(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/workouts?start=2026-03-01&end=2026-03-14", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 {
		t.Errorf("start day = %d, want 1", start.Day())
	}
	if end.Day() != 15 {
		t.Errorf("end day = %d, want 15 (exclusive end of the 14th)", end.Day())
	}
}

// TestParseTimeRangeInvalid verifies a malformed start is an error.
func TestParseTimeRangeInvalid(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/workouts?start=yesterday", nil)
	if _, _, err := parseTimeRange(req); err == nil {
		t.Error("expected error for malformed start")
	}
}

package analysis

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/oarbit/oarbit/internal/models"
)

// ergPiece builds an erg workout of the given distance and duration
// starting at the given clock time on 2026-03-14.
func ergPiece(id string, clock string, dist, dur float64) models.Workout {
	date, err := time.Parse(time.RFC3339, "2026-03-14T"+clock+"Z")
	if err != nil {
		panic(err)
	}
	return models.Workout{
		ID:          id,
		Date:        date,
		Type:        models.TypeErg,
		MachineType: models.MachineRower,
		DistanceM:   models.Float(dist),
		DurationSec: models.Float(dur),
	}
}

// TestMergeThreePieceSession verifies the end-to-end scenario: three
// 1500m/360s pieces 9 minutes apart become one synthetic session with
// summed totals, one split per piece, and a rest note per gap.
func TestMergeThreePieceSession(t *testing.T) {
	in := []models.Workout{
		ergPiece("a", "09:00:00", 1500, 360),
		ergPiece("b", "09:09:00", 1500, 360),
		ergPiece("c", "09:18:00", 1500, 360),
	}
	out := MergeSessions(in)
	if len(out) != 1 {
		t.Fatalf("got %d workouts, want 1", len(out))
	}
	s := out[0]
	if s.ID != "session:a" {
		t.Errorf("id = %q, want %q", s.ID, "session:a")
	}
	if s.WorkoutType != "FixedDistanceInterval" {
		t.Errorf("workoutType = %q, want FixedDistanceInterval", s.WorkoutType)
	}
	if s.DistanceM == nil || *s.DistanceM != 4500 {
		t.Errorf("distance = %v, want 4500", s.DistanceM)
	}
	if s.DurationSec == nil || *s.DurationSec != 1080 {
		t.Errorf("duration = %v, want 1080", s.DurationSec)
	}
	if len(s.Splits) != 3 {
		t.Fatalf("splits = %d, want 3", len(s.Splits))
	}
	for i, sp := range s.Splits {
		if sp.Number != i+1 {
			t.Errorf("split %d number = %d", i, sp.Number)
		}
		if sp.DistanceM == nil || *sp.DistanceM != 1500 {
			t.Errorf("split %d distance = %v, want 1500", i, sp.DistanceM)
		}
	}
	// Two gaps of 540-360 = 180s each.
	if s.Notes != "Rest: 3:00 / 3:00 (avg 3:00)" {
		t.Errorf("notes = %q", s.Notes)
	}
	if s.AvgHeartRate != nil {
		t.Error("synthetic session must not carry an averaged heart rate")
	}
}

// TestMergeGapBoundary verifies the 30-minute ceiling is inclusive: a
// gap of exactly 1800s merges, 1801s does not.
func TestMergeGapBoundary(t *testing.T) {
	// First piece ends at 09:06:00 (start 09:00:00 + 360s).
	within := []models.Workout{
		ergPiece("a", "09:00:00", 2000, 360),
		ergPiece("b", "09:36:00", 2000, 360),
	}
	if out := MergeSessions(within); len(out) != 1 {
		t.Errorf("1800s gap: got %d workouts, want merged 1", len(out))
	}

	beyond := []models.Workout{
		ergPiece("a", "09:00:00", 2000, 360),
		ergPiece("b", "09:36:01", 2000, 360),
	}
	if out := MergeSessions(beyond); len(out) != 2 {
		t.Errorf("1801s gap: got %d workouts, want 2 untouched", len(out))
	}
}

// TestMergeNegativeGapTolerance verifies the clock-skew allowance: a
// piece starting 60s before the previous one's computed end still
// merges, 61s does not.
func TestMergeNegativeGapTolerance(t *testing.T) {
	skewed := []models.Workout{
		ergPiece("a", "09:00:00", 2000, 360), // ends 09:06:00
		ergPiece("b", "09:05:00", 2000, 360), // gap -60
	}
	if out := MergeSessions(skewed); len(out) != 1 {
		t.Errorf("-60s gap: got %d workouts, want merged 1", len(out))
	}

	tooSkewed := []models.Workout{
		ergPiece("a", "09:00:00", 2000, 360),
		ergPiece("b", "09:04:59", 2000, 360), // gap -61
	}
	if out := MergeSessions(tooSkewed); len(out) != 2 {
		t.Errorf("-61s gap: got %d workouts, want 2 untouched", len(out))
	}
}

// TestMergeIdempotent verifies that merging a merged array changes
// nothing: synthetic sessions carry an interval workout type and are
// excluded from candidacy.
func TestMergeIdempotent(t *testing.T) {
	in := []models.Workout{
		ergPiece("a", "09:00:00", 1500, 360),
		ergPiece("b", "09:09:00", 1500, 360),
		ergPiece("c", "16:00:00", 5000, 1200),
	}
	once := MergeSessions(in)
	twice := MergeSessions(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second merge changed the result:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

// TestMergeDoesNotMutateInput verifies the input slice and its elements
// are untouched by a merge that produces a synthetic session.
func TestMergeDoesNotMutateInput(t *testing.T) {
	in := []models.Workout{
		ergPiece("a", "09:00:00", 1500, 360),
		ergPiece("b", "09:09:00", 1500, 360),
	}
	before := make([]models.Workout, len(in))
	copy(before, in)

	MergeSessions(in)

	if !reflect.DeepEqual(in, before) {
		t.Errorf("input mutated:\nbefore: %+v\nafter:  %+v", before, in)
	}
}

// TestMergeIdentityFastPath verifies that when nothing merges the
// original slice is returned, not a copy.
func TestMergeIdentityFastPath(t *testing.T) {
	in := []models.Workout{
		ergPiece("a", "09:00:00", 2000, 360),
		ergPiece("b", "14:00:00", 5000, 1200),
	}
	out := MergeSessions(in)
	if len(out) != len(in) {
		t.Fatalf("got %d workouts, want %d", len(out), len(in))
	}
	if &out[0] != &in[0] {
		t.Error("expected the identity fast path to return the input slice")
	}
}

// TestMergeRequiresMatchingPieces verifies the extension tests: a
// different distance, a different machine, a non-erg workout, or an
// already-structured interval workout breaks the group.
func TestMergeRequiresMatchingPieces(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Workout)
	}{
		{"different distance", func(w *models.Workout) { w.DistanceM = models.Float(1000) }},
		{"different machine", func(w *models.Workout) { w.MachineType = models.MachineSkiErg }},
		{"not erg", func(w *models.Workout) { w.Type = models.TypeCardio }},
		{"already interval", func(w *models.Workout) { w.WorkoutType = "FixedTimeInterval" }},
		{"missing distance", func(w *models.Workout) { w.DistanceM = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			second := ergPiece("b", "09:09:00", 1500, 360)
			tt.mutate(&second)
			in := []models.Workout{ergPiece("a", "09:00:00", 1500, 360), second}
			if out := MergeSessions(in); len(out) != 2 {
				t.Errorf("got %d workouts, want 2 unmerged", len(out))
			}
		})
	}
}

// TestMergeMissingDurationBlocksExtension verifies that a piece without
// a duration has no computable end time, so the next piece cannot join
// its group.
func TestMergeMissingDurationBlocksExtension(t *testing.T) {
	first := ergPiece("a", "09:00:00", 1500, 360)
	first.DurationSec = nil
	in := []models.Workout{first, ergPiece("b", "09:09:00", 1500, 360)}
	if out := MergeSessions(in); len(out) != 2 {
		t.Errorf("got %d workouts, want 2 unmerged", len(out))
	}
}

// TestMergeAcrossDaysNeverMerges verifies the day partition: identical
// pieces on different days are never grouped.
func TestMergeAcrossDaysNeverMerges(t *testing.T) {
	a := ergPiece("a", "23:50:00", 1500, 360)
	b := ergPiece("b", "00:05:00", 1500, 360)
	b.Date = b.Date.AddDate(0, 0, 1)
	in := []models.Workout{a, b}
	if out := MergeSessions(in); len(out) != 2 {
		t.Errorf("got %d workouts, want 2 unmerged", len(out))
	}
}

// TestMergePreservesPositions verifies the reconstruction pass: the
// synthetic session lands at the first piece's position in the original
// (arbitrary) order, later pieces are dropped, and unrelated workouts
// keep their slots.
func TestMergePreservesPositions(t *testing.T) {
	lift := models.Workout{
		ID:   "lift",
		Date: ergPiece("x", "07:00:00", 0, 0).Date,
		Type: models.TypeStrength,
	}
	// Input deliberately out of chronological order.
	in := []models.Workout{
		ergPiece("b", "09:09:00", 1500, 360),
		lift,
		ergPiece("a", "09:00:00", 1500, 360),
		ergPiece("c", "09:18:00", 1500, 360),
	}
	out := MergeSessions(in)
	if len(out) != 2 {
		t.Fatalf("got %d workouts, want 2", len(out))
	}
	if out[0].ID != "lift" {
		t.Errorf("out[0] = %q, want the strength workout", out[0].ID)
	}
	// "a" is the chronologically first piece; the session replaces it at
	// its original index (after the dropped "b" and the kept lift).
	if out[1].ID != "session:a" {
		t.Errorf("out[1] = %q, want session:a", out[1].ID)
	}
}

// TestMergeAveragesPresentMetricsOnly verifies that pace/watts/stroke
// rate are averaged over the pieces that recorded them and stay nil
// when none did.
func TestMergeAveragesPresentMetricsOnly(t *testing.T) {
	a := ergPiece("a", "09:00:00", 1500, 360)
	a.AvgWatts = models.Float(240)
	a.AvgPace = models.Float(1200)
	b := ergPiece("b", "09:09:00", 1500, 360)
	b.AvgWatts = models.Float(220)
	c := ergPiece("c", "09:18:00", 1500, 360)

	out := MergeSessions([]models.Workout{a, b, c})
	if len(out) != 1 {
		t.Fatalf("got %d workouts, want 1", len(out))
	}
	s := out[0]
	if s.AvgWatts == nil || *s.AvgWatts != 230 {
		t.Errorf("avgWatts = %v, want 230 (mean of 240, 220)", s.AvgWatts)
	}
	if s.AvgPace == nil || *s.AvgPace != 1200 {
		t.Errorf("avgPace = %v, want 1200", s.AvgPace)
	}
	if s.StrokeRate != nil {
		t.Errorf("strokeRate = %v, want nil (no piece recorded it)", s.StrokeRate)
	}
}

// TestMergeRestNoteCount verifies that Notes lists exactly one rest
// value per gap between consecutive pieces.
func TestMergeRestNoteCount(t *testing.T) {
	in := []models.Workout{
		ergPiece("a", "09:00:00", 1000, 240),
		ergPiece("b", "09:07:00", 1000, 240),
		ergPiece("c", "09:15:00", 1000, 240),
		ergPiece("d", "09:24:00", 1000, 240),
	}
	out := MergeSessions(in)
	if len(out) != 1 {
		t.Fatalf("got %d workouts, want 1", len(out))
	}
	notes := out[0].Notes
	if !strings.HasPrefix(notes, "Rest: ") {
		t.Fatalf("notes = %q, want Rest: prefix", notes)
	}
	values := strings.Split(strings.TrimPrefix(notes[:strings.Index(notes, " (avg")], "Rest: "), " / ")
	if len(values) != 3 {
		t.Errorf("rest values = %d (%q), want 3", len(values), notes)
	}
}

// TestMergeCustomGapPolicy verifies the gap window comes from the
// config: a tightened ceiling rejects what the default accepts.
func TestMergeCustomGapPolicy(t *testing.T) {
	in := []models.Workout{
		ergPiece("a", "09:00:00", 2000, 360),
		ergPiece("b", "09:16:00", 2000, 360), // 600s gap
	}
	tight := MergerConfig{MinGapSec: -60, MaxGapSec: 300}
	if out := tight.Merge(in); len(out) != 2 {
		t.Errorf("tight policy: got %d workouts, want 2 unmerged", len(out))
	}
	if out := MergeSessions(in); len(out) != 1 {
		t.Errorf("default policy: got %d workouts, want merged 1", len(out))
	}
}

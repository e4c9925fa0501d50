package importer

import (
	"strings"
	"testing"

	"github.com/oarbit/oarbit/internal/models"
)

const sampleExport = `Log ID,Date,Description,Work Time (Seconds),Work Distance,Stroke Rate/Cadence,Pace,Avg Watts,Avg Heart Rate,Type,Comments
101,2026-03-14 09:00:00,2000m row,480,2000,28,2:00.0,230,165,RowErg,morning test
102,2026-03-14 17:30:00,steady,3600,,24,,150,,SkiErg,
103,2026-03-15 07:15:00,,1254.5,5000,26,2:05.4,,148,RowErg,
`

// TestParseSeasonExport verifies column mapping, date parsing, pace
// conversion to tenths, and machine type normalization.
func TestParseSeasonExport(t *testing.T) {
	workouts, err := Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(workouts) != 3 {
		t.Fatalf("workouts = %d, want 3", len(workouts))
	}

	w := workouts[0]
	if w.Type != models.TypeErg {
		t.Errorf("type = %q, want erg", w.Type)
	}
	if w.MachineType != models.MachineRower {
		t.Errorf("machine = %q, want rower", w.MachineType)
	}
	if w.Date.Hour() != 9 {
		t.Errorf("hour = %d, want 9", w.Date.Hour())
	}
	if w.DistanceM == nil || *w.DistanceM != 2000 {
		t.Errorf("distance = %v, want 2000", w.DistanceM)
	}
	if w.AvgPace == nil || *w.AvgPace != 1200 {
		t.Errorf("pace = %v, want 1200 tenths", w.AvgPace)
	}
	if w.Notes != "morning test" {
		t.Errorf("notes = %q", w.Notes)
	}

	if workouts[1].MachineType != models.MachineSkiErg {
		t.Errorf("machine = %q, want skierg", workouts[1].MachineType)
	}

	if workouts[2].AvgPace == nil || *workouts[2].AvgPace != 1254 {
		t.Errorf("pace = %v, want 1254 tenths", workouts[2].AvgPace)
	}
}

// TestParseTriangulatesMissingMetrics verifies that a row with distance
// and pace but no work time gets its duration derived, and a row with
// only duration derives nothing.
func TestParseTriangulatesMissingMetrics(t *testing.T) {
	csv := `Date,Work Time (Seconds),Work Distance,Pace,Type
2026-03-14 09:00:00,,2000,2:00.0,RowErg
2026-03-14 10:00:00,3600,,,RowErg
`
	workouts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if workouts[0].DurationSec == nil || *workouts[0].DurationSec != 480 {
		t.Errorf("duration = %v, want derived 480", workouts[0].DurationSec)
	}
	if workouts[1].DistanceM != nil || workouts[1].AvgPace != nil {
		t.Error("single-metric row must not invent values")
	}
}

// TestParseRejectsNonExport verifies a CSV without a Date column is
// rejected up front rather than producing empty workouts.
func TestParseRejectsNonExport(t *testing.T) {
	if _, err := Parse(strings.NewReader("a,b,c\n1,2,3\n")); err == nil {
		t.Error("expected error for non-export CSV")
	}
}

// TestParseRejectsBadDate verifies a malformed date aborts the file so
// partial imports don't go unnoticed.
func TestParseRejectsBadDate(t *testing.T) {
	csv := `Date,Work Distance,Type
14/03/2026,2000,RowErg
`
	if _, err := Parse(strings.NewReader(csv)); err == nil {
		t.Error("expected error for malformed date")
	}
}

// TestParsePaceFormats verifies the pace cell parser.
func TestParsePaceFormats(t *testing.T) {
	tests := []struct {
		in   string
		want float64 // 0 means nil expected
	}{
		{"2:00.0", 1200},
		{"1:45.2", 1052},
		{"2:05.4", 1254},
		{"2:05", 1250},
		{"", 0},
		{"fast", 0},
	}
	for _, tt := range tests {
		got := parsePace(tt.in)
		if tt.want == 0 {
			if got != nil {
				t.Errorf("parsePace(%q) = %v, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parsePace(%q) = %v, want %.0f", tt.in, got, tt.want)
		}
	}
}

// Package ergo ingests workout payloads posted by erg logging clients.
package ergo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oarbit/oarbit/internal/analysis"
	"github.com/oarbit/oarbit/internal/models"
)

// Payload is the request body of POST /api/v1/ingest.
type Payload struct {
	Workouts []WorkoutPayload `json:"workouts"`
}

// WorkoutPayload is one workout as sent by a logging client. Metric
// fields are optional; whichever of distance/duration/pace is missing
// gets derived at ingest time when the other two are present.
type WorkoutPayload struct {
	Date         string         `json:"date"`
	Type         string         `json:"type"`
	MachineType  string         `json:"machine_type"`
	WorkoutType  string         `json:"workout_type"`
	DistanceM    *float64       `json:"distance_m"`
	DurationSec  *float64       `json:"duration_sec"`
	AvgPace      *float64       `json:"avg_pace"`
	AvgWatts     *float64       `json:"avg_watts"`
	StrokeRate   *float64       `json:"stroke_rate"`
	AvgHeartRate *float64       `json:"avg_heart_rate"`
	Notes        string         `json:"notes"`
	Splits       []SplitPayload `json:"splits"`
}

// SplitPayload is one split row within a workout payload.
type SplitPayload struct {
	Number     int      `json:"split_number"`
	DistanceM  *float64 `json:"distance_m"`
	TimeSec    *float64 `json:"time_sec"`
	Pace       *float64 `json:"pace"`
	Watts      *float64 `json:"watts"`
	StrokeRate *float64 `json:"stroke_rate"`
	HeartRate  *float64 `json:"heart_rate"`
}

var workoutTypes = map[string]bool{
	models.TypeErg:      true,
	models.TypeCardio:   true,
	models.TypeStrength: true,
	models.TypeOther:    true,
}

// ToModel validates the payload and converts it to a Workout with a
// fresh id, filling the missing aggregate and per-split metrics via
// triangulation. Supplied values are never overwritten.
func (wp WorkoutPayload) ToModel() (models.Workout, error) {
	date, err := parseDate(wp.Date)
	if err != nil {
		return models.Workout{}, fmt.Errorf("parsing date %q: %w", wp.Date, err)
	}

	kind := wp.Type
	if kind == "" {
		kind = models.TypeOther
	}
	if !workoutTypes[kind] {
		return models.Workout{}, fmt.Errorf("unknown workout type %q", wp.Type)
	}

	w := models.Workout{
		ID:           uuid.New().String(),
		Date:         date,
		Type:         kind,
		MachineType:  wp.MachineType,
		WorkoutType:  wp.WorkoutType,
		DistanceM:    wp.DistanceM,
		DurationSec:  wp.DurationSec,
		AvgPace:      wp.AvgPace,
		AvgWatts:     wp.AvgWatts,
		StrokeRate:   wp.StrokeRate,
		AvgHeartRate: wp.AvgHeartRate,
		Notes:        wp.Notes,
	}

	if tri := analysis.Triangulate(w.DistanceM, w.DurationSec, w.AvgPace); tri != (analysis.Triangulation{}) {
		if w.DistanceM == nil {
			w.DistanceM = tri.DistanceM
		}
		if w.DurationSec == nil {
			w.DurationSec = tri.DurationSec
		}
		if w.AvgPace == nil {
			w.AvgPace = tri.AvgPace
		}
	}

	for _, sp := range wp.Splits {
		split := models.Split{
			Number:     sp.Number,
			DistanceM:  sp.DistanceM,
			TimeSec:    sp.TimeSec,
			Pace:       sp.Pace,
			Watts:      sp.Watts,
			StrokeRate: sp.StrokeRate,
			HeartRate:  sp.HeartRate,
		}
		tri := analysis.Triangulate(split.DistanceM, split.TimeSec, split.Pace)
		if split.DistanceM == nil {
			split.DistanceM = tri.DistanceM
		}
		if split.TimeSec == nil {
			split.TimeSec = tri.DurationSec
		}
		if split.Pace == nil {
			split.Pace = tri.AvgPace
		}
		w.Splits = append(w.Splits, split)
	}

	return w, nil
}

// parseDate accepts RFC 3339 or the space-separated form some logging
// clients send ("2026-03-14 09:00:00").
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

package models

import "time"

// Workout types as logged by clients.
const (
	TypeErg      = "erg"
	TypeCardio   = "cardio"
	TypeStrength = "strength"
	TypeOther    = "other"
)

// Machine types for erg workouts.
const (
	MachineRower   = "rower"
	MachineSkiErg  = "skierg"
	MachineBikeErg = "bikeerg"
)

// Workout is one logged training unit. Aggregate metrics are optional
// because source devices vary in what they record; pace is stored in
// tenths of a second per 500 m.
type Workout struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Type         string    `json:"type"`
	MachineType  string    `json:"machine_type,omitempty"`
	WorkoutType  string    `json:"workout_type,omitempty"`
	DistanceM    *float64  `json:"distance_m,omitempty"`
	DurationSec  *float64  `json:"duration_sec,omitempty"`
	AvgPace      *float64  `json:"avg_pace,omitempty"`
	AvgWatts     *float64  `json:"avg_watts,omitempty"`
	StrokeRate   *float64  `json:"stroke_rate,omitempty"`
	AvgHeartRate *float64  `json:"avg_heart_rate,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Splits       []Split   `json:"splits,omitempty"`
}

// Split is one measured segment of a workout. All metric fields are
// optional; Number is 1-based and strictly increasing within a workout.
type Split struct {
	Number     int      `json:"split_number"`
	DistanceM  *float64 `json:"distance_m,omitempty"`
	TimeSec    *float64 `json:"time_sec,omitempty"`
	Pace       *float64 `json:"pace,omitempty"`
	Watts      *float64 `json:"watts,omitempty"`
	StrokeRate *float64 `json:"stroke_rate,omitempty"`
	HeartRate  *float64 `json:"heart_rate,omitempty"`
}

// Float returns a pointer to v. Convenience for building optional metric fields.
func Float(v float64) *float64 {
	return &v
}

// Day returns the workout's calendar day in its own timezone, e.g. "2026-03-14".
func (w Workout) Day() string {
	return w.Date.Format("2006-01-02")
}

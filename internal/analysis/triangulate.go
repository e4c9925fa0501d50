// Package analysis contains the erg telemetry analysis engine: metric
// triangulation, interval pattern detection, and same-day session merging.
// Everything here is a pure function over in-memory records. Nothing does
// I/O or mutates caller-owned data, so it is safe for concurrent use.
package analysis

import "math"

// Triangulation holds the single metric derived by Triangulate. At most
// one field is non-nil.
type Triangulation struct {
	DistanceM   *float64 `json:"distance_m,omitempty"`
	DurationSec *float64 `json:"duration_sec,omitempty"`
	AvgPace     *float64 `json:"avg_pace,omitempty"`
}

// Triangulate derives the missing one of {distance, duration, pace} from
// the other two. Pace is in tenths of a second per 500 m, duration in
// seconds, distance in meters. A nil or non-positive input counts as not
// provided. Unless exactly two inputs are provided the result is empty:
// a value the athlete entered is never recomputed.
func Triangulate(distanceM, durationSec, paceTenths *float64) Triangulation {
	hasDist := provided(distanceM)
	hasDur := provided(durationSec)
	hasPace := provided(paceTenths)

	switch {
	case hasDist && hasDur && !hasPace:
		pace := math.Round(*durationSec / (*distanceM / 500) * 10)
		return Triangulation{AvgPace: &pace}
	case hasDist && hasPace && !hasDur:
		dur := math.Round((*paceTenths / 10) * (*distanceM / 500))
		return Triangulation{DurationSec: &dur}
	case hasDur && hasPace && !hasDist:
		dist := math.Round(*durationSec / (*paceTenths / 10) * 500)
		return Triangulation{DistanceM: &dist}
	}
	return Triangulation{}
}

func provided(v *float64) bool {
	return v != nil && *v > 0
}

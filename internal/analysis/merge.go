package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/oarbit/oarbit/internal/models"
)

// SessionIDPrefix marks a synthetic session workout. The suffix is the
// id of the chronologically first piece; consumers navigating to a
// session must strip the prefix to reach the real record.
const SessionIDPrefix = "session:"

// MergerConfig carries the gap policy for deciding that two separately
// logged pieces belong to one interval session.
type MergerConfig struct {
	// MinGapSec allows slightly negative gaps, absorbing clock skew
	// between logging devices.
	MinGapSec float64
	// MaxGapSec bounds the rest between pieces of the same session.
	MaxGapSec float64
}

// DefaultMergerConfig returns the production gap policy: up to 60s of
// clock skew, up to 30 minutes of rest.
func DefaultMergerConfig() MergerConfig {
	return MergerConfig{MinGapSec: -60, MaxGapSec: 1800}
}

// MergeSessions detects runs of same-day erg pieces that form one
// interval session and replaces each run with a single synthetic
// workout, using the default gap policy. See MergerConfig.Merge.
func MergeSessions(workouts []models.Workout) []models.Workout {
	return DefaultMergerConfig().Merge(workouts)
}

// Merge scans each calendar day for consecutive erg workouts with
// identical distance on the same machine, separated by gaps inside the
// configured window, and collapses each such group into one synthetic
// session workout placed at the position of its first piece. Unmerged
// workouts pass through unchanged and keep their relative order. When
// nothing merges, the input slice is returned as-is. Neither the input
// slice nor its elements are ever modified.
func (c MergerConfig) Merge(workouts []models.Workout) []models.Workout {
	if len(workouts) < 2 {
		return workouts
	}

	byDay := make(map[string][]models.Workout)
	var dayOrder []string
	for _, w := range workouts {
		day := w.Day()
		if _, ok := byDay[day]; !ok {
			dayOrder = append(dayOrder, day)
		}
		byDay[day] = append(byDay[day], w)
	}

	// firstOf maps the first piece's id to its group; dropped holds the
	// ids of every other piece of any group.
	firstOf := make(map[string][]models.Workout)
	dropped := make(map[string]bool)

	for _, day := range dayOrder {
		pieces := append([]models.Workout(nil), byDay[day]...)
		sort.SliceStable(pieces, func(i, j int) bool {
			return pieces[i].Date.Before(pieces[j].Date)
		})

		i := 0
		for i < len(pieces) {
			if !mergeCandidate(pieces[i]) {
				i++
				continue
			}
			j := i + 1
			for j < len(pieces) && c.extendsGroup(pieces[i], pieces[j-1], pieces[j]) {
				j++
			}
			if j-i >= 2 {
				group := pieces[i:j]
				firstOf[group[0].ID] = group
				for _, p := range group[1:] {
					dropped[p.ID] = true
				}
			}
			i = j
		}
	}

	if len(firstOf) == 0 {
		return workouts
	}

	out := make([]models.Workout, 0, len(workouts))
	for _, w := range workouts {
		if group, ok := firstOf[w.ID]; ok {
			out = append(out, c.buildSession(group))
			continue
		}
		if dropped[w.ID] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// mergeCandidate reports whether a workout can start or join a session
// group: an erg piece with a recorded distance that is not already a
// structured interval workout.
func mergeCandidate(w models.Workout) bool {
	if w.Type != models.TypeErg {
		return false
	}
	if w.DistanceM == nil || *w.DistanceM <= 0 {
		return false
	}
	return !intervalHintRe.MatchString(w.WorkoutType)
}

// extendsGroup reports whether next continues the group started by
// first: same machine, same distance, still an erg piece, and the gap
// from prev's end to next's start inside the configured window. A prev
// with no recorded duration has no computable end time and never
// extends.
func (c MergerConfig) extendsGroup(first, prev, next models.Workout) bool {
	if !mergeCandidate(next) {
		return false
	}
	if next.MachineType != first.MachineType {
		return false
	}
	if first.DistanceM == nil || next.DistanceM == nil || *next.DistanceM != *first.DistanceM {
		return false
	}
	if prev.DurationSec == nil {
		return false
	}
	gap := next.Date.Sub(prev.Date).Seconds() - *prev.DurationSec
	return gap >= c.MinGapSec && gap <= c.MaxGapSec
}

// buildSession constructs the synthetic composite workout for a group
// of two or more pieces. Distance and duration are exact sums; pace,
// watts and stroke rate are means over the pieces that recorded them;
// heart rate is intentionally left empty because averaging averages
// across rests misrepresents effort. Each piece becomes one split, and
// the rest gaps between pieces are rendered into Notes.
func (c MergerConfig) buildSession(group []models.Workout) models.Workout {
	first := group[0]

	var distance, duration float64
	splits := make([]models.Split, len(group))
	for i, p := range group {
		if p.DistanceM != nil {
			distance += *p.DistanceM
		}
		if p.DurationSec != nil {
			duration += *p.DurationSec
		}
		splits[i] = models.Split{
			Number:     i + 1,
			DistanceM:  p.DistanceM,
			TimeSec:    p.DurationSec,
			Pace:       p.AvgPace,
			Watts:      p.AvgWatts,
			StrokeRate: p.StrokeRate,
			HeartRate:  p.AvgHeartRate,
		}
	}

	return models.Workout{
		ID:          SessionIDPrefix + first.ID,
		Date:        first.Date,
		Type:        models.TypeErg,
		MachineType: first.MachineType,
		WorkoutType: "FixedDistanceInterval",
		DistanceM:   &distance,
		DurationSec: &duration,
		AvgPace:     meanPresent(group, func(w models.Workout) *float64 { return w.AvgPace }),
		AvgWatts:    meanPresent(group, func(w models.Workout) *float64 { return w.AvgWatts }),
		StrokeRate:  meanPresent(group, func(w models.Workout) *float64 { return w.StrokeRate }),
		Notes:       restNotes(group),
		Splits:      splits,
	}
}

// restNotes renders the rest gaps between consecutive pieces, e.g.
// "Rest: 3:00 / 2:45 (avg 2:52)". Negative gaps (clock skew) clamp to
// zero.
func restNotes(group []models.Workout) string {
	gaps := make([]float64, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		prev := group[i-1]
		var prevDur float64
		if prev.DurationSec != nil {
			prevDur = *prev.DurationSec
		}
		gap := math.Round(group[i].Date.Sub(prev.Date).Seconds() - prevDur)
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}

	parts := make([]string, len(gaps))
	for i, g := range gaps {
		parts[i] = FormatDuration(g)
	}
	return fmt.Sprintf("Rest: %s (avg %s)", strings.Join(parts, " / "), FormatDuration(mean(gaps)))
}

// meanPresent averages a metric over the pieces that recorded it,
// returning nil rather than zero when none did.
func meanPresent(group []models.Workout, metric func(models.Workout) *float64) *float64 {
	var sum float64
	var n int
	for _, w := range group {
		if v := metric(w); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

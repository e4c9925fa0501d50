package analysis

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/oarbit/oarbit/internal/models"
)

// Block classifications.
const (
	BlockWork = "work"
	BlockRest = "rest"
)

var (
	intervalHintRe = regexp.MustCompile(`(?i)interval`)
	fixedTimeRe    = regexp.MustCompile(`(?i)fixedtime`)
)

// IntervalBlock is a maximal run of consecutive splits sharing a
// work/rest classification. DistanceM and TimeSec are sums over the
// block's splits, counting missing values as zero.
type IntervalBlock struct {
	Type      string         `json:"type"`
	Splits    []models.Split `json:"splits"`
	DistanceM float64        `json:"distance_m"`
	TimeSec   float64        `json:"time_sec"`
}

// IntervalPattern is the detector result. Pattern is empty and
// Intervals nil when IsInterval is false.
type IntervalPattern struct {
	IsInterval bool            `json:"is_interval"`
	Pattern    string          `json:"pattern"`
	Intervals  []IntervalBlock `json:"intervals"`
	WorkCount  int             `json:"work_count"`
}

// DetectorConfig carries the classification thresholds. They are
// heuristics tuned against recorded erg sessions, so they stay
// adjustable rather than buried as literals.
type DetectorConfig struct {
	// RestFraction classifies a split as rest when its watts or
	// distance fall below this fraction of the respective median.
	RestFraction float64
	// Tolerance is the relative spread allowed for a set of work
	// distances or durations to count as one repeating structure.
	Tolerance float64
}

// DefaultDetectorConfig returns the thresholds used in production.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{RestFraction: 0.3, Tolerance: 0.15}
}

// DetectIntervals classifies a split sequence into work/rest blocks and
// builds a human-readable interval notation, using default thresholds.
// workoutType is the free-text type hint recorded with the workout; when
// it names an interval mode the splits are trusted to all be work.
func DetectIntervals(splits []models.Split, workoutType string) IntervalPattern {
	return DefaultDetectorConfig().Detect(splits, workoutType)
}

// Detect runs interval detection with this configuration. The input
// slice is never modified.
func (c DetectorConfig) Detect(splits []models.Split, workoutType string) IntervalPattern {
	if intervalHintRe.MatchString(workoutType) {
		return c.detectFromHint(splits, workoutType)
	}
	return c.detectFromVariance(splits)
}

// detectFromHint handles workouts whose type already declares an
// interval mode (e.g. "FixedDistanceInterval"). The monitor records one
// split per repeat and no separate rest rows, so every split is one
// work block and rest lives in metadata elsewhere.
func (c DetectorConfig) detectFromHint(splits []models.Split, workoutType string) IntervalPattern {
	if len(splits) < 2 {
		return IntervalPattern{}
	}

	blocks := make([]IntervalBlock, len(splits))
	dists := make([]float64, len(splits))
	times := make([]float64, len(splits))
	for i, sp := range splits {
		b := IntervalBlock{Type: BlockWork, Splits: []models.Split{sp}}
		if sp.DistanceM != nil {
			b.DistanceM = *sp.DistanceM
		}
		if sp.TimeSec != nil {
			b.TimeSec = *sp.TimeSec
		}
		blocks[i] = b
		dists[i] = b.DistanceM
		times[i] = b.TimeSec
	}

	n := len(splits)
	distOK := c.consistent(dists)
	timeOK := c.consistent(times)

	var pattern string
	switch {
	case fixedTimeRe.MatchString(workoutType) && timeOK:
		pattern = fmt.Sprintf("%d x %s", n, FormatDuration(times[0]))
	case distOK:
		pattern = fmt.Sprintf("%d x %s", n, FormatDistance(dists[0]))
	case timeOK:
		pattern = fmt.Sprintf("%d x %s", n, FormatDuration(times[0]))
	default:
		pattern = fmt.Sprintf("%d intervals", n)
	}

	return IntervalPattern{IsInterval: true, Pattern: pattern, Intervals: blocks, WorkCount: n}
}

// detectFromVariance recognizes interval structure with no hint by
// looking at relative magnitudes: splits far below the median watts or
// distance are rest, the rest are work. Needs at least 3 splits and 2
// usable samples to say anything.
func (c DetectorConfig) detectFromVariance(splits []models.Split) IntervalPattern {
	if len(splits) < 3 {
		return IntervalPattern{}
	}

	var watts, dists []float64
	for _, sp := range splits {
		if sp.Watts != nil {
			watts = append(watts, *sp.Watts)
		}
		if sp.DistanceM != nil {
			dists = append(dists, *sp.DistanceM)
		}
	}
	if len(watts) < 2 && len(dists) < 2 {
		return IntervalPattern{}
	}
	medWatts := median(watts)
	medDist := median(dists)

	var blocks []IntervalBlock
	for _, sp := range splits {
		kind := BlockWork
		if c.isRest(sp, medWatts, medDist) {
			kind = BlockRest
		}
		if len(blocks) == 0 || blocks[len(blocks)-1].Type != kind {
			blocks = append(blocks, IntervalBlock{Type: kind})
		}
		b := &blocks[len(blocks)-1]
		b.Splits = append(b.Splits, sp)
		if sp.DistanceM != nil {
			b.DistanceM += *sp.DistanceM
		}
		if sp.TimeSec != nil {
			b.TimeSec += *sp.TimeSec
		}
	}

	var workDists, workTimes, restTimes []float64
	workCount := 0
	for _, b := range blocks {
		if b.Type == BlockWork {
			workCount++
			workDists = append(workDists, b.DistanceM)
			workTimes = append(workTimes, b.TimeSec)
		} else {
			restTimes = append(restTimes, b.TimeSec)
		}
	}
	// A steady piece, or one stray rest split that doesn't separate two
	// work runs, is not an interval session.
	if workCount < 2 {
		return IntervalPattern{}
	}

	distOK := c.consistent(workDists)
	timeOK := c.consistent(workTimes)
	if !distOK && !timeOK {
		return IntervalPattern{}
	}

	var pattern string
	if distOK {
		pattern = fmt.Sprintf("%d x %s", workCount, FormatDistance(workDists[0]))
	} else {
		pattern = fmt.Sprintf("%d x %s", workCount, FormatDuration(workTimes[0]))
	}
	if len(restTimes) > 0 && c.consistent(restTimes) {
		pattern += fmt.Sprintf(" / %sr", FormatDuration(mean(restTimes)))
	}

	return IntervalPattern{IsInterval: true, Pattern: pattern, Intervals: blocks, WorkCount: workCount}
}

func (c DetectorConfig) isRest(sp models.Split, medWatts, medDist float64) bool {
	if sp.Watts != nil {
		if *sp.Watts == 0 {
			return true
		}
		if medWatts > 0 && *sp.Watts < c.RestFraction*medWatts {
			return true
		}
	}
	if sp.DistanceM != nil && medDist > 0 && *sp.DistanceM < c.RestFraction*medDist {
		return true
	}
	return false
}

// consistent reports whether all values sit within Tolerance of the
// first. Fewer than two values, or a non-positive reference, is never
// consistent.
func (c DetectorConfig) consistent(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	ref := values[0]
	if ref <= 0 {
		return false
	}
	for _, v := range values[1:] {
		diff := v - ref
		if diff < 0 {
			diff = -diff
		}
		if diff > c.Tolerance*ref {
			return false
		}
	}
	return true
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Package importer reads Concept2-style season CSV exports and loads
// them into storage, keeping a local ledger of processed files.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oarbit/oarbit/internal/analysis"
	"github.com/oarbit/oarbit/internal/models"
)

// paceRe matches the monitor's pace column, e.g. "2:05.4" per 500m.
var paceRe = regexp.MustCompile(`^(\d+):(\d{2}(?:\.\d)?)$`)

// Columns of the season export we consume; others are ignored.
var wantedColumns = []string{
	"Date",
	"Work Time (Seconds)",
	"Work Distance",
	"Stroke Rate/Cadence",
	"Pace",
	"Avg Watts",
	"Avg Heart Rate",
	"Type",
	"Comments",
}

// Parse reads a season CSV export and returns one workout per data row.
// Rows with an unparseable date are returned as an error; missing metric
// cells simply leave the field unset, and whichever of distance/time/
// pace is absent gets triangulated from the other two.
func Parse(r io.Reader) ([]models.Workout, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["Date"]; !ok {
		return nil, fmt.Errorf("not a season export: no Date column")
	}

	var workouts []models.Workout
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		line++

		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		date, err := parseExportDate(cell("Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		w := models.Workout{
			ID:           uuid.New().String(),
			Date:         date,
			Type:         models.TypeErg,
			MachineType:  machineType(cell("Type")),
			DistanceM:    parseNumber(cell("Work Distance")),
			DurationSec:  parseNumber(cell("Work Time (Seconds)")),
			AvgPace:      parsePace(cell("Pace")),
			AvgWatts:     parseNumber(cell("Avg Watts")),
			StrokeRate:   parseNumber(cell("Stroke Rate/Cadence")),
			AvgHeartRate: parseNumber(cell("Avg Heart Rate")),
			Notes:        cell("Comments"),
		}

		tri := analysis.Triangulate(w.DistanceM, w.DurationSec, w.AvgPace)
		if w.DistanceM == nil {
			w.DistanceM = tri.DistanceM
		}
		if w.DurationSec == nil {
			w.DurationSec = tri.DurationSec
		}
		if w.AvgPace == nil {
			w.AvgPace = tri.AvgPace
		}

		workouts = append(workouts, w)
	}
	return workouts, nil
}

// parseExportDate accepts the export's "2026-03-14 09:00:00" form and
// plain dates.
func parseExportDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// parsePace converts "2:05.4" to pace tenths (1254).
func parsePace(s string) *float64 {
	m := paceRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	mins, _ := strconv.Atoi(m[1])
	secs, _ := strconv.ParseFloat(m[2], 64)
	tenths := float64(mins*600) + secs*10
	if tenths <= 0 {
		return nil
	}
	return &tenths
}

func machineType(exportType string) string {
	switch strings.ToLower(exportType) {
	case "rowerg", "rower", "indoor rower":
		return models.MachineRower
	case "skierg":
		return models.MachineSkiErg
	case "bikeerg":
		return models.MachineBikeErg
	default:
		return ""
	}
}

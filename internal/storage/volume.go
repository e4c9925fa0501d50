package storage

import (
	"context"
	"fmt"
	"time"
)

// VolumePeriod holds aggregated erg volume for one time bucket.
type VolumePeriod struct {
	Period       string   `json:"period"`
	Sessions     int      `json:"sessions"`
	Meters       float64  `json:"meters"`
	Seconds      float64  `json:"seconds"`
	AvgPace      *float64 `json:"avg_pace,omitempty"`
	AvgHeartRate *float64 `json:"avg_heart_rate,omitempty"`
}

// GetTrainingVolume returns per-bucket meters, time and session counts
// for erg workouts in a time range.
func (db *DB) GetTrainingVolume(ctx context.Context, start, end time.Time, bucket string, userID int) ([]VolumePeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, date)::date AS period,
		        COUNT(*)::int,
		        COALESCE(SUM(distance_m), 0),
		        COALESCE(SUM(duration_sec), 0),
		        AVG(avg_pace),
		        AVG(avg_heart_rate)
		 FROM workouts
		 WHERE date >= $2 AND date < $3 AND user_id = $4 AND type = 'erg'
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training volume: %w", err)
	}
	defer rows.Close()

	var periods []VolumePeriod
	for rows.Next() {
		var periodTime time.Time
		var p VolumePeriod
		if err := rows.Scan(&periodTime, &p.Sessions, &p.Meters, &p.Seconds, &p.AvgPace, &p.AvgHeartRate); err != nil {
			return nil, fmt.Errorf("scanning volume period: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// truncInterval maps a bucket string to a date_trunc field, defaulting
// to day for anything unrecognized.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "week":
		return "week"
	case "1 month", "month":
		return "month"
	default:
		return "day"
	}
}

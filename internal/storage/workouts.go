package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oarbit/oarbit/internal/models"
)

// InsertWorkout inserts a workout and its splits in one transaction.
// Returns true if inserted, false if the id already exists.
func (db *DB) InsertWorkout(ctx context.Context, userID int, w models.Workout) (bool, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return false, fmt.Errorf("parsing workout id %q: %w", w.ID, err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO workouts (id, user_id, date, type, machine_type, workout_type,
		 distance_m, duration_sec, avg_pace, avg_watts, stroke_rate, avg_heart_rate, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT DO NOTHING`,
		id, userID, w.Date, w.Type, nullEmpty(w.MachineType), nullEmpty(w.WorkoutType),
		w.DistanceM, w.DurationSec, w.AvgPace, w.AvgWatts, w.StrokeRate, w.AvgHeartRate, w.Notes)
	if err != nil {
		return false, fmt.Errorf("inserting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if len(w.Splits) > 0 {
		if err := insertSplits(ctx, tx, id, w.Splits); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing workout: %w", err)
	}
	return true, nil
}

func insertSplits(ctx context.Context, tx pgx.Tx, workoutID uuid.UUID, splits []models.Split) error {
	query := `INSERT INTO workout_splits (workout_id, split_number, distance_m, time_sec, pace, watts, stroke_rate, heart_rate) VALUES `
	args := make([]any, 0, len(splits)*8)
	valueStrings := make([]string, 0, len(splits))

	for i, sp := range splits {
		base := i * 8
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args, workoutID, sp.Number, sp.DistanceM, sp.TimeSec, sp.Pace, sp.Watts, sp.StrokeRate, sp.HeartRate)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting splits: %w", err)
	}
	return nil
}

// QueryWorkouts retrieves workouts (with splits) in a time range,
// optionally filtered by type, ordered by date ascending.
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time, userID int, typeFilter string) ([]models.Workout, error) {
	query := `SELECT id, date, type, machine_type, workout_type,
	 distance_m, duration_sec, avg_pace, avg_watts, stroke_rate, avg_heart_rate, notes
	 FROM workouts
	 WHERE date >= $1 AND date < $2 AND user_id = $3`
	args := []any{start, end, userID}
	if typeFilter != "" {
		query += ` AND type = $4`
		args = append(args, typeFilter)
	}
	query += ` ORDER BY date ASC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	workouts, err := scanWorkoutRows(rows)
	if err != nil {
		return nil, err
	}
	if err := db.attachSplits(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// GetWorkout retrieves a single workout with its splits.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, date, type, machine_type, workout_type,
		 distance_m, duration_sec, avg_pace, avg_watts, stroke_rate, avg_heart_rate, notes
		 FROM workouts
		 WHERE id = $1 AND user_id = $2`,
		workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	defer rows.Close()

	workouts, err := scanWorkoutRows(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, fmt.Errorf("workout %s not found", workoutID)
	}
	if err := db.attachSplits(ctx, workouts); err != nil {
		return nil, err
	}
	return &workouts[0], nil
}

// DeleteWorkout removes a workout and its splits (cascade). Returns true
// if a row was deleted.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanWorkoutRows(rows pgx.Rows) ([]models.Workout, error) {
	var workouts []models.Workout
	for rows.Next() {
		var w models.Workout
		var id uuid.UUID
		var machineType, workoutType *string
		if err := rows.Scan(&id, &w.Date, &w.Type, &machineType, &workoutType,
			&w.DistanceM, &w.DurationSec, &w.AvgPace, &w.AvgWatts, &w.StrokeRate, &w.AvgHeartRate, &w.Notes); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		w.ID = id.String()
		if machineType != nil {
			w.MachineType = *machineType
		}
		if workoutType != nil {
			w.WorkoutType = *workoutType
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// attachSplits loads splits for the given workouts in one query and
// distributes them by workout id, in split order.
func (db *DB) attachSplits(ctx context.Context, workouts []models.Workout) error {
	if len(workouts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(workouts))
	index := make(map[string]int, len(workouts))
	for i, w := range workouts {
		id, err := uuid.Parse(w.ID)
		if err != nil {
			return fmt.Errorf("parsing workout id %q: %w", w.ID, err)
		}
		ids[i] = id
		index[w.ID] = i
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT workout_id, split_number, distance_m, time_sec, pace, watts, stroke_rate, heart_rate
		 FROM workout_splits
		 WHERE workout_id = ANY($1)
		 ORDER BY workout_id, split_number`,
		ids)
	if err != nil {
		return fmt.Errorf("querying splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var workoutID uuid.UUID
		var sp models.Split
		if err := rows.Scan(&workoutID, &sp.Number, &sp.DistanceM, &sp.TimeSec, &sp.Pace, &sp.Watts, &sp.StrokeRate, &sp.HeartRate); err != nil {
			return fmt.Errorf("scanning split: %w", err)
		}
		if i, ok := index[workoutID.String()]; ok {
			workouts[i].Splits = append(workouts[i].Splits, sp)
		}
	}
	return rows.Err()
}

func nullEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

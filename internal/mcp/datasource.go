package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oarbit/oarbit/internal/models"
	"github.com/oarbit/oarbit/internal/storage"
)

// DataSource abstracts the data layer for MCP tools.
type DataSource interface {
	QueryWorkouts(ctx context.Context, start, end time.Time, userID int, typeFilter string) ([]models.Workout, error)
	GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.Workout, error)
	GetTrainingVolume(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.VolumePeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

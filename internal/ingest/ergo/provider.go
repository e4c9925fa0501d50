package ergo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oarbit/oarbit/internal/storage"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	WorkoutsReceived int      `json:"workouts_received"`
	WorkoutsInserted int      `json:"workouts_inserted"`
	WorkoutsSkipped  int      `json:"workouts_skipped"`
	WorkoutsRejected int      `json:"workouts_rejected"`
	SplitsReceived   int      `json:"splits_received"`
	RejectedReasons  []string `json:"rejected_reasons,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// Provider ingests erg client payloads into storage.
type Provider struct {
	db  *storage.DB
	log *slog.Logger
}

// NewProvider creates a new Provider.
func NewProvider(db *storage.DB, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest validates and stores every workout in the payload. Malformed
// workouts are counted and reported but do not abort the batch; only a
// storage failure does.
func (p *Provider) Ingest(ctx context.Context, userID int, payload *Payload) (*Result, error) {
	result := &Result{WorkoutsReceived: len(payload.Workouts)}

	for _, wp := range payload.Workouts {
		w, err := wp.ToModel()
		if err != nil {
			result.WorkoutsRejected++
			result.RejectedReasons = append(result.RejectedReasons, err.Error())
			p.log.Warn("rejected workout payload", "error", err)
			continue
		}

		inserted, err := p.db.InsertWorkout(ctx, userID, w)
		if err != nil {
			return result, fmt.Errorf("inserting workout: %w", err)
		}
		if inserted {
			result.WorkoutsInserted++
			result.SplitsReceived += len(w.Splits)
		} else {
			result.WorkoutsSkipped++
		}
	}

	return result, nil
}

package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oarbit/oarbit/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	WorkoutsInserted   int
	WorkoutsDuplicated int
}

// Importer reads season CSV exports from a directory and inserts
// workouts into the DB, skipping files the state ledger already knows.
type Importer struct {
	db     *storage.DB
	state  *StateDB
	log    *slog.Logger
	userID int
	dryRun bool
	stats  Stats
}

// New creates a new Importer. state may be nil, in which case every
// file is processed.
func New(db *storage.DB, state *StateDB, userID int, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, state: state, userID: userID, log: log, dryRun: dryRun}
}

// Import processes all .csv files under dir, in name order.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := imp.importFile(ctx, dir, path); err != nil {
			imp.stats.FilesErrored++
			imp.log.Error("import failed", "file", path, "error", err)
			continue
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, dir, path string) error {
	relPath, err := filepath.Rel(dir, path)
	if err != nil {
		relPath = path
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	if imp.state != nil {
		done, err := imp.state.IsImported(relPath, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if done {
			imp.stats.FilesSkipped++
			imp.log.Info("skipping already-imported file", "file", relPath)
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	workouts, err := Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	imp.log.Info("importing file", "file", relPath, "workouts", len(workouts))

	if !imp.dryRun {
		for _, w := range workouts {
			inserted, err := imp.db.InsertWorkout(ctx, imp.userID, w)
			if err != nil {
				return fmt.Errorf("inserting workout: %w", err)
			}
			if inserted {
				imp.stats.WorkoutsInserted++
			} else {
				imp.stats.WorkoutsDuplicated++
			}
		}
		if imp.state != nil {
			if err := imp.state.MarkImported(relPath, info.Size(), hash); err != nil {
				return fmt.Errorf("marking imported: %w", err)
			}
		}
	}

	imp.stats.FilesProcessed++
	return nil
}

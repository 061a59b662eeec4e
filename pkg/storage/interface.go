package storage

import (
	"context"
	"io"
	"time"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
)

// RunStore persists the history of generation runs
type RunStore interface {
	// SaveRun stores a run record. Records without an ID are rejected.
	SaveRun(record *models.RunRecord) error

	// LatestRun returns the most recently started run, or nil if none exists
	LatestRun() (*models.RunRecord, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 returns all runs.
	ListRuns(limit int) ([]models.RunRecord, error)

	// RunCount returns the number of stored runs
	RunCount() (int, error)

	// PruneRuns deletes all but the newest keep runs and returns the number deleted
	PruneRuns(keep int) (int, error)

	// ExportRuns writes every run as one JSON object per line, oldest first
	ExportRuns(ctx context.Context, w io.Writer) (int, error)

	// RunGC runs periodic garbage collection until ctx is cancelled
	RunGC(ctx context.Context, interval time.Duration)

	// Close closes the underlying database
	Close() error
}

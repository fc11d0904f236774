// Package storage persists extraction runs so they can be listed, replayed
// and compared later. A run is one parse of one repository's history
// together with every record it produced, in emission order.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/defectlens/defectlens-go/internal/models"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("not found")

// Run describes one stored extraction.
type Run struct {
	ID         string    `db:"id" json:"id"`
	Repository string    `db:"repository" json:"repository"`
	Records    int       `db:"records" json:"records"`
	Defects    int       `db:"defects" json:"defects"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Store defines the run storage interface.
type Store interface {
	// SaveRun persists the records of one extraction and returns the
	// created run.
	SaveRun(ctx context.Context, repository string, records []*models.ChangeRecord) (*Run, error)

	// GetRun returns run metadata, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first. An empty repository matches all
	// repositories; a non-positive limit means no cap.
	ListRuns(ctx context.Context, repository string, limit int) ([]*Run, error)

	// GetRecords returns a run's records in their original emission order.
	GetRecords(ctx context.Context, runID string) ([]*models.ChangeRecord, error)

	// GetRecordsByCommits returns the subset of a run's records whose
	// commit id is in commitIDs, still in emission order.
	GetRecordsByCommits(ctx context.Context, runID string, commitIDs []string) ([]*models.ChangeRecord, error)

	// Close closes the underlying connection.
	Close() error
}

// New creates a store for the configured backend.
func New(backend, dsn string, logger *logrus.Logger) (Store, error) {
	switch backend {
	case "sqlite":
		return NewSQLiteStore(dsn, logger)
	case "postgres":
		return NewPostgresStore(dsn, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want sqlite or postgres)", backend)
	}
}

func countDefects(records []*models.ChangeRecord) int {
	n := 0
	for _, rec := range records {
		if rec.IsDefect {
			n++
		}
	}
	return n
}

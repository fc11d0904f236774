// Package output writes the extracted change records to their artifact
// files. Each enabled format gets its own writer; all writers receive the
// same record slice in the same order.
package output

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/defectlens/defectlens-go/internal/models"
)

// Writer emits one artifact for a record set.
type Writer interface {
	// Name returns the artifact path, for progress reporting.
	Name() string
	Write(ctx context.Context, records []*models.ChangeRecord) error
}

// Options selects the artifact formats and their directory.
type Options struct {
	Dir  string
	JSON bool
	CSV  bool
	Text bool
}

// Build returns a writer per enabled format. Artifacts are named after the
// repository: <repo>.json, <repo>.csv and <repo>-commit-recs.txt.
func Build(repository string, opts Options) []Writer {
	var writers []Writer
	if opts.JSON {
		writers = append(writers, &JSONWriter{path: filepath.Join(opts.Dir, repository+".json")})
	}
	if opts.CSV {
		writers = append(writers, &CSVWriter{path: filepath.Join(opts.Dir, repository+".csv")})
	}
	if opts.Text {
		writers = append(writers, &TextWriter{path: filepath.Join(opts.Dir, repository+"-commit-recs.txt")})
	}
	return writers
}

// WriteAll runs every writer against the same records, stopping at the
// first failure.
func WriteAll(ctx context.Context, writers []Writer, records []*models.ChangeRecord) error {
	for _, w := range writers {
		if err := w.Write(ctx, records); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.Name(), err)
		}
	}
	return nil
}

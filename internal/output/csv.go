package output

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/defectlens/defectlens-go/internal/models"
)

// CSVWriter writes the record set as CSV with a header row.
type CSVWriter struct {
	path string
}

func (w *CSVWriter) Name() string { return w.path }

func (w *CSVWriter) Write(ctx context.Context, records []*models.ChangeRecord) error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(models.FieldNames()); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.CSVRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

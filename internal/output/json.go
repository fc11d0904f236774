package output

import (
	"context"
	"encoding/json"
	"os"

	"github.com/defectlens/defectlens-go/internal/models"
)

// JSONWriter writes the record set as a single indented JSON array.
type JSONWriter struct {
	path string
}

func (w *JSONWriter) Name() string { return w.path }

func (w *JSONWriter) Write(ctx context.Context, records []*models.ChangeRecord) error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	// an empty history still produces a valid array, not null
	if records == nil {
		records = []*models.ChangeRecord{}
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return err
	}
	return f.Close()
}

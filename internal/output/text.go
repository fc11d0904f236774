package output

import (
	"bufio"
	"context"
	"os"

	"github.com/defectlens/defectlens-go/internal/models"
)

// TextWriter writes one display line per record, the same rendering the
// record's String method produces.
type TextWriter struct {
	path string
}

func (w *TextWriter) Name() string { return w.path }

func (w *TextWriter) Write(ctx context.Context, records []*models.ChangeRecord) error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, rec := range records {
		if _, err := bw.WriteString(rec.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

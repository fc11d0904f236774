package output

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlens/defectlens-go/internal/models"
)

func sampleRecords() []*models.ChangeRecord {
	return []*models.ChangeRecord{
		{
			Repository:   "myrepo",
			Timestamp:    1420643700,
			CommitID:     strings.Repeat("a", 40),
			File:         "foo.txt",
			LinesAdded:   10,
			LinesDeleted: 2,
			Author:       "dev@example.com",
			IsDefect:     true,
		},
		{
			Repository:   "myrepo",
			Timestamp:    1420650000,
			CommitID:     strings.Repeat("b", 40),
			File:         "bar/baz.go",
			LinesAdded:   0,
			LinesDeleted: 5,
			Author:       "dev@example.com",
			IsDefect:     false,
		},
	}
}

func TestBuildToggles(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "all formats",
			opts: Options{Dir: "out", JSON: true, CSV: true, Text: true},
			want: []string{
				filepath.Join("out", "myrepo.json"),
				filepath.Join("out", "myrepo.csv"),
				filepath.Join("out", "myrepo-commit-recs.txt"),
			},
		},
		{
			name: "json only",
			opts: Options{Dir: ".", JSON: true},
			want: []string{"myrepo.json"},
		},
		{
			name: "none",
			opts: Options{Dir: "."},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writers := Build("myrepo", tt.opts)
			var names []string
			for _, w := range writers {
				names = append(names, w.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestJSONWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	w := &JSONWriter{path: filepath.Join(dir, "myrepo.json")}
	require.NoError(t, w.Write(context.Background(), records))

	data, err := os.ReadFile(w.Name())
	require.NoError(t, err)

	var got []*models.ChangeRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, records, got)

	// field names on the wire follow the fixed serialization order
	assert.Contains(t, string(data), `"commit_id"`)
	assert.Contains(t, string(data), `"is_defect"`)
}

func TestJSONWriterEmptyIsArray(t *testing.T) {
	dir := t.TempDir()

	w := &JSONWriter{path: filepath.Join(dir, "myrepo.json")}
	require.NoError(t, w.Write(context.Background(), nil))

	data, err := os.ReadFile(w.Name())
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestCSVWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	w := &CSVWriter{path: filepath.Join(dir, "myrepo.csv")}
	require.NoError(t, w.Write(context.Background(), records))

	f, err := os.Open(w.Name())
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.FieldNames(), rows[0])
	assert.Equal(t, records[0].CSVRow(), rows[1])
	assert.Equal(t, records[1].CSVRow(), rows[2])
}

func TestTextWriterLines(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	w := &TextWriter{path: filepath.Join(dir, "myrepo-commit-recs.txt")}
	require.NoError(t, w.Write(context.Background(), records))

	data, err := os.ReadFile(w.Name())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, records[0].String(), lines[0])
	assert.Equal(t, records[1].String(), lines[1])
	assert.Contains(t, lines[0], `"is_defect":"true"`)
	assert.Contains(t, lines[1], `"is_defect":"false"`)
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	writers := Build("myrepo", Options{Dir: dir, JSON: true, CSV: true, Text: true})
	require.Len(t, writers, 3)

	require.NoError(t, WriteAll(context.Background(), writers, sampleRecords()))
	for _, w := range writers {
		info, err := os.Stat(w.Name())
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestWriteAllFailurePropagates(t *testing.T) {
	// a directory that does not exist makes the first writer fail
	writers := Build("myrepo", Options{Dir: filepath.Join(t.TempDir(), "missing"), JSON: true})
	err := WriteAll(context.Background(), writers, sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write")
}

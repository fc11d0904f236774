package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangeRecord(t *testing.T) {
	rec := NewChangeRecord("myrepo")

	assert.Equal(t, "myrepo", rec.Repository)
	assert.Equal(t, UnsetCount, rec.LinesAdded)
	assert.Equal(t, UnsetCount, rec.LinesDeleted)
	assert.Empty(t, rec.File)
	assert.False(t, rec.IsDefect)
}

func TestClone(t *testing.T) {
	orig := &ChangeRecord{
		Repository:   "myrepo",
		Timestamp:    1420643700,
		CommitID:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		File:         "foo.txt",
		LinesAdded:   10,
		LinesDeleted: 2,
		Author:       "a@x.com",
		IsDefect:     true,
	}

	clone := orig.Clone()

	// Commit-level fields carry over.
	assert.Equal(t, orig.Repository, clone.Repository)
	assert.Equal(t, orig.Timestamp, clone.Timestamp)
	assert.Equal(t, orig.CommitID, clone.CommitID)
	assert.Equal(t, orig.Author, clone.Author)
	assert.Equal(t, orig.IsDefect, clone.IsDefect)

	// File-level fields reset.
	assert.Empty(t, clone.File)
	assert.Equal(t, UnsetCount, clone.LinesAdded)
	assert.Equal(t, UnsetCount, clone.LinesDeleted)

	// The clone is independent of the original.
	clone.File = "bar.txt"
	clone.LinesAdded = 5
	assert.Equal(t, "foo.txt", orig.File)
	assert.Equal(t, 10, orig.LinesAdded)
}

func TestFieldNames(t *testing.T) {
	want := []string{
		"repository",
		"timestamp",
		"commit_id",
		"file",
		"lines_added",
		"lines_deleted",
		"author",
		"is_defect",
	}
	assert.Equal(t, want, FieldNames())
}

func TestCSVRow(t *testing.T) {
	rec := &ChangeRecord{
		Repository:   "myrepo",
		Timestamp:    1420643700,
		CommitID:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		File:         "foo.txt",
		LinesAdded:   10,
		LinesDeleted: 2,
		Author:       "a@x.com",
		IsDefect:     true,
	}

	row := rec.CSVRow()
	require.Len(t, row, len(FieldNames()))
	assert.Equal(t, []string{
		"myrepo",
		"1420643700",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"foo.txt",
		"10",
		"2",
		"a@x.com",
		"true",
	}, row)
}

func TestString(t *testing.T) {
	rec := &ChangeRecord{
		Repository:   "myrepo",
		Timestamp:    1420643700,
		CommitID:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		File:         "foo.txt",
		LinesAdded:   10,
		LinesDeleted: 2,
		Author:       "a@x.com",
		IsDefect:     false,
	}

	want := `{"repository":"myrepo","timestamp":1420643700,` +
		`"commit_id":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",` +
		`"file":"foo.txt","lines_added":10,"lines_deleted":2,` +
		`"author":"a@x.com","is_defect":"false"}`
	assert.Equal(t, want, rec.String())
}

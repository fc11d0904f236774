package models

import (
	"fmt"
	"strconv"
)

// UnsetCount marks lines_added and lines_deleted before a file-change line
// has been parsed. It must never appear in emitted output.
const UnsetCount = -1

// ChangeRecord is one normalized (commit, file) row extracted from a
// repository's history. Every record derived from the same commit shares
// repository, timestamp, commit_id, author and is_defect.
type ChangeRecord struct {
	Repository   string `json:"repository" db:"repository"`
	Timestamp    int64  `json:"timestamp" db:"timestamp"`
	CommitID     string `json:"commit_id" db:"commit_id"`
	File         string `json:"file" db:"file"`
	LinesAdded   int    `json:"lines_added" db:"lines_added"`
	LinesDeleted int    `json:"lines_deleted" db:"lines_deleted"`
	Author       string `json:"author" db:"author"`
	IsDefect     bool   `json:"is_defect" db:"is_defect"`
}

// NewChangeRecord returns a record for one commit with the file-level fields
// still unset.
func NewChangeRecord(repository string) *ChangeRecord {
	return &ChangeRecord{
		Repository:   repository,
		LinesAdded:   UnsetCount,
		LinesDeleted: UnsetCount,
	}
}

// Clone copies the commit-level fields and resets the file-level ones, so the
// copy can be filled from another file-change line of the same commit.
func (r *ChangeRecord) Clone() *ChangeRecord {
	return &ChangeRecord{
		Repository:   r.Repository,
		Timestamp:    r.Timestamp,
		CommitID:     r.CommitID,
		Author:       r.Author,
		IsDefect:     r.IsDefect,
		LinesAdded:   UnsetCount,
		LinesDeleted: UnsetCount,
	}
}

// FieldNames is the stable serialization order shared by the JSON keys, the
// CSV header and the database columns.
func FieldNames() []string {
	return []string{
		"repository",
		"timestamp",
		"commit_id",
		"file",
		"lines_added",
		"lines_deleted",
		"author",
		"is_defect",
	}
}

// CSVRow renders the record's values as strings in FieldNames order.
func (r *ChangeRecord) CSVRow() []string {
	return []string{
		r.Repository,
		strconv.FormatInt(r.Timestamp, 10),
		r.CommitID,
		r.File,
		strconv.Itoa(r.LinesAdded),
		strconv.Itoa(r.LinesDeleted),
		r.Author,
		strconv.FormatBool(r.IsDefect),
	}
}

// String renders the compact display form used by the text artifact: keys in
// FieldNames order, string and boolean values quoted, numbers unquoted.
func (r *ChangeRecord) String() string {
	return fmt.Sprintf(`{"repository":%q,"timestamp":%d,"commit_id":%q,"file":%q,"lines_added":%d,"lines_deleted":%d,"author":%q,"is_defect":%q}`,
		r.Repository, r.Timestamp, r.CommitID, r.File, r.LinesAdded, r.LinesDeleted, r.Author, strconv.FormatBool(r.IsDefect))
}

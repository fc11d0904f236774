package gitlog

import (
	"fmt"
	"strings"

	"github.com/defectlens/defectlens-go/internal/models"
)

// DefectSet answers whether a commit identifier is a known defect fix. It is
// built before parsing starts and never mutated afterwards, so block parsers
// may share it freely.
type DefectSet interface {
	Contains(id string) bool
}

// BlockError is a fatal integrity failure: a commit block violates the
// assumed log format, so the whole run is aborted and no partial output is
// trusted. It carries the offending block's raw lines for diagnostics.
type BlockError struct {
	Reason string
	Block  []string
}

func (e *BlockError) Error() string {
	if len(e.Block) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s in block:\n%s", e.Reason, strings.Join(e.Block, "\n"))
}

// parseBlock converts one commit block into its change records. The block
// runs from a commit-header line up to, but excluding, the next one.
//
// Processing order is fixed: header, author, date, then every remaining line
// is bucketed as either a file change or message text. A block with no file
// changes (a merge, typically) yields no records and no error. Classification
// is set membership first, ticket-token search in the message second, and is
// shared by every record of the block.
func parseBlock(block []string, repository string, set DefectSet) ([]*models.ChangeRecord, error) {
	if len(block) == 0 {
		return nil, &BlockError{Reason: "empty commit block"}
	}

	commitID, ok := MatchCommitHeader(block[0])
	if !ok {
		return nil, &BlockError{Reason: "block does not start with a commit header", Block: block}
	}

	author := ""
	authorFound := false
	for _, line := range block[1:] {
		if _, address, ok := MatchAuthor(line); ok {
			author = address
			authorFound = true
			break
		}
	}
	if !authorFound {
		return nil, &BlockError{Reason: fmt.Sprintf("no author line for commit %s", commitID), Block: block}
	}

	var timestamp int64
	dateIdx := -1
	for i, line := range block[1:] {
		raw, ok := MatchDate(line)
		if !ok {
			continue
		}
		ts, err := ParseDate(raw)
		if err != nil {
			return nil, &BlockError{Reason: fmt.Sprintf("unparsable date for commit %s: %v", commitID, err), Block: block}
		}
		timestamp = ts
		dateIdx = i + 1
		break
	}
	if dateIdx < 0 {
		return nil, &BlockError{Reason: fmt.Sprintf("no date line for commit %s", commitID), Block: block}
	}

	// Everything after the date line is either a file change or message text.
	// The message lines are concatenated as-is for the ticket search.
	var fileLines []string
	var message strings.Builder
	for _, line := range block[dateIdx+1:] {
		if MatchFileChange(line) {
			fileLines = append(fileLines, line)
		} else {
			message.WriteString(line)
		}
	}

	// Merge commits and other file-less blocks produce no records.
	if len(fileLines) == 0 {
		return nil, nil
	}

	rec := models.NewChangeRecord(repository)
	rec.CommitID = commitID
	rec.Author = author
	rec.Timestamp = timestamp
	if set != nil && set.Contains(commitID) {
		rec.IsDefect = true
	} else {
		rec.IsDefect = HasTicketReference(message.String())
	}

	records := make([]*models.ChangeRecord, 0, len(fileLines))
	for i, line := range fileLines {
		fc, err := ParseFileChange(line)
		if err != nil {
			return nil, &BlockError{Reason: fmt.Sprintf("bad file-change line for commit %s: %v", commitID, err), Block: block}
		}
		cur := rec
		if i > 0 {
			cur = rec.Clone()
		}
		cur.File = fc.Path
		cur.LinesAdded = fc.LinesAdded
		cur.LinesDeleted = fc.LinesDeleted
		records = append(records, cur)
	}

	return records, nil
}

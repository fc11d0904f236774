// Package gitlog parses the output of `git log --numstat` into normalized
// per-(commit,file) change records with a heuristic defect classification.
package gitlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The five line shapes of a history dump. Matchers are anchored at the line
// start (except the ticket token, which may appear anywhere in message text)
// and return captured values instead of exposing the underlying patterns.
var (
	commitHeaderPattern = regexp.MustCompile(`^commit\s+([a-f0-9]{40})`)
	authorPattern       = regexp.MustCompile(`^Author:\s+(.*)\s+<(.*)>`)
	datePattern         = regexp.MustCompile(`^Date:\s+(.*)`)
	fileChangePattern   = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\S+)`)
	ticketPattern       = regexp.MustCompile(`[A-Z]+-[0-9]+`)
)

// dateLayout matches git's default author date rendering, e.g.
// "Wed Jan 07 10:15:00 2015 -0500". The day-of-month token accepts both the
// padded and unpadded forms git emits.
const dateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// MatchCommitHeader reports whether line opens a commit block and, if so,
// returns the 40-character commit identifier.
func MatchCommitHeader(line string) (string, bool) {
	m := commitHeaderPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MatchAuthor reports whether line is an "Author: Name <address>" line and,
// if so, returns the display name and the bracketed address. Only the
// address is carried into records.
func MatchAuthor(line string) (name, address string, ok bool) {
	m := authorPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchDate reports whether line is a "Date:" line and, if so, returns the
// raw date string for ParseDate.
func MatchDate(line string) (string, bool) {
	m := datePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FileChange is the parsed form of one numstat file-change line.
type FileChange struct {
	LinesAdded   int
	LinesDeleted int
	Path         string
}

// MatchFileChange reports whether line is a numstat file-change line
// (added count, deleted count, path). Binary placeholders ("-	-	path")
// carry no counts, do not match, and are treated as message text.
func MatchFileChange(line string) bool {
	return fileChangePattern.MatchString(line)
}

// ParseFileChange extracts the counts and path from a file-change line.
func ParseFileChange(line string) (FileChange, error) {
	m := fileChangePattern.FindStringSubmatch(line)
	if m == nil {
		return FileChange{}, fmt.Errorf("not a file-change line: %q", line)
	}

	added, err := strconv.Atoi(m[1])
	if err != nil {
		return FileChange{}, fmt.Errorf("added count in %q: %w", line, err)
	}
	deleted, err := strconv.Atoi(m[2])
	if err != nil {
		return FileChange{}, fmt.Errorf("deleted count in %q: %w", line, err)
	}

	return FileChange{LinesAdded: added, LinesDeleted: deleted, Path: m[3]}, nil
}

// HasTicketReference reports whether text contains a defect-tracker token
// such as "JIRA-1234" (uppercase project prefix, hyphen, digits).
func HasTicketReference(text string) bool {
	return ticketPattern.MatchString(text)
}

// ParseDate converts a git date string to UTC epoch seconds. The recorded
// timezone offset is honored during conversion, so "Wed Jan 07 10:15:00 2015
// -0500" yields 1420643700.
func ParseDate(s string) (int64, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// Package defects maintains the reference set of commit identifiers known to
// fix defects, and can build one from a repository's issue history.
package defects

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var commitIDPattern = regexp.MustCompile(`^[a-f0-9]{40}$`)

// Set answers membership queries for known-defect commit identifiers. It is
// built once per run and read-only afterwards.
type Set struct {
	ids map[string]struct{}
}

// NewSet builds a set from the given identifiers.
func NewSet(ids ...string) *Set {
	s := &Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Load reads the optional defect list at path: one identifier per line,
// surrounding whitespace trimmed, blank lines skipped. A missing or
// unreadable file is an advisory condition, not a failure: Load returns an
// empty set together with the reason, and the run continues on the message
// heuristic alone. An empty path yields an empty set silently.
func Load(path string) (*Set, error) {
	s := NewSet()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("defect list %s not read (%v), continuing with message heuristic only", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s, nil
}

// Contains reports whether id is a known defect fix.
func (s *Set) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of identifiers in the set.
func (s *Set) Len() int {
	return len(s.ids)
}

// WriteList writes identifiers one per line in sorted order, the same format
// Load consumes.
func WriteList(path string, ids []string) error {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	var sb strings.Builder
	for _, id := range sorted {
		sb.WriteString(id)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// VerifyResult summarizes a strict check of a defect list file.
type VerifyResult struct {
	Total      int
	Valid      int
	Malformed  []string
	Duplicates []string
}

// VerifyFile checks every entry of a defect list against the 40-hex commit
// identifier shape and reports malformed and duplicate entries. Loading
// stays tolerant (garbage entries can never match a real identifier); this
// strict check exists for operators maintaining the list by hand.
func VerifyFile(path string) (*VerifyResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{}
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		res.Total++
		if !commitIDPattern.MatchString(id) {
			res.Malformed = append(res.Malformed, id)
			continue
		}
		res.Valid++
		if _, dup := seen[id]; dup {
			res.Duplicates = append(res.Duplicates, id)
		}
		seen[id] = struct{}{}
	}
	return res, nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffRuns renders a unified diff between the record sets of two stored
// runs. Records are compared in their display form, one line each. An empty
// result means the runs produced identical records.
func DiffRuns(ctx context.Context, store Store, fromID, toID string) (string, error) {
	from, err := store.GetRecords(ctx, fromID)
	if err != nil {
		return "", fmt.Errorf("load run %s: %w", fromID, err)
	}
	to, err := store.GetRecords(ctx, toID)
	if err != nil {
		return "", fmt.Errorf("load run %s: %w", toID, err)
	}

	a := make([]string, len(from))
	for i, rec := range from {
		a[i] = rec.String() + "\n"
	}
	b := make([]string, len(to))
	for i, rec := range to {
		b[i] = rec.String() + "\n"
	}

	diff := difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "run " + fromID,
		ToFile:   "run " + toID,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

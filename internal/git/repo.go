// Package git shells out to the git binary to identify a repository and
// dump its change history in the numstat layout the parser consumes.
package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	apperrors "github.com/defectlens/defectlens-go/internal/errors"
)

// Repo is a handle on a local working tree.
type Repo struct {
	path string
}

// Open returns a handle for the working tree at path. No validation happens
// here; call IsRepo to check.
func Open(path string) *Repo {
	return &Repo{path: path}
}

// Path returns the directory this handle was opened on.
func (r *Repo) Path() string {
	return r.path
}

// IsRepo reports whether the path is inside a git working tree.
func (r *Repo) IsRepo(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	cmd.Dir = r.path
	return cmd.Run() == nil
}

// Name returns the repository name, the basename of the working tree root.
// Output artifacts are named after it.
func (r *Repo) Name(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return filepath.Base(strings.TrimSpace(out)), nil
}

// HistoryDump runs git log --numstat and returns the output split into
// lines, the exact shape the history parser expects. An empty history
// yields no lines.
func (r *Repo) HistoryDump(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "log", "--numstat")
	if err != nil {
		return nil, err
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", apperrors.GitErrorf(err, "git %s failed in %s: %s", args[0], r.path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", apperrors.GitErrorf(err, "git %s failed in %s", args[0], r.path)
	}
	return string(out), nil
}

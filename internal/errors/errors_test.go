package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := StorageError(cause, "save run failed")

	assert.Equal(t, "save run failed: disk full", err.Error())
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeGit, SeverityHigh, "ignored"))
}

func TestIsMatchesOnType(t *testing.T) {
	err := fmt.Errorf("outer: %w", ParseError("bad block"))

	assert.True(t, stderrors.Is(err, &Error{Type: ErrorTypeParse}))
	assert.False(t, stderrors.Is(err, &Error{Type: ErrorTypeConfig}))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"parse errors are fatal", ParseError("x"), true},
		{"config errors are fatal", ConfigError("x"), true},
		{"fetch errors are not", FetchError(stderrors.New("x"), "y"), false},
		{"validation errors are not", ValidationError("x"), false},
		{"plain errors are not", stderrors.New("x"), false},
		{"nil is not", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestWithContext(t *testing.T) {
	err := ParseError("bad block").WithContext("block", 3).WithContext("line", "commit zzz")

	require.Len(t, err.Context, 2)
	assert.Equal(t, 3, err.Context["block"])

	detail := err.DetailedString()
	assert.Contains(t, detail, "[CRITICAL] [PARSE] bad block")
	assert.Contains(t, detail, "block: 3")
}

func TestGetTypeAndSeverity(t *testing.T) {
	err := GitError(stderrors.New("exit 128"), "history dump failed")

	assert.Equal(t, ErrorTypeGit, GetType(err))
	assert.Equal(t, SeverityHigh, GetSeverity(err))
	assert.Equal(t, SeverityMedium, GetSeverity(stderrors.New("plain")))
}

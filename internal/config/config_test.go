package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into a temp dir so Load never touches
// the real search paths.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Repository)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.True(t, cfg.Output.JSON)
	assert.False(t, cfg.Output.CSV)
	assert.False(t, cfg.Output.Text)
	assert.Equal(t, []string{"bug"}, cfg.Defects.Labels)
	assert.Equal(t, 1, cfg.Parse.Workers)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Contains(t, cfg.Storage.Path, ".defectlens")
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
	assert.Equal(t, Default().Parse, cfg.Parse)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
repository: /srv/checkouts/myrepo
output:
  dir: /tmp/artifacts
  csv: true
parse:
  workers: 4
storage:
  backend: postgres
  dsn: postgres://localhost/defects
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/checkouts/myrepo", cfg.Repository)
	assert.Equal(t, "/tmp/artifacts", cfg.Output.Dir)
	assert.True(t, cfg.Output.CSV)
	// unmentioned keys keep their defaults
	assert.True(t, cfg.Output.JSON)
	assert.False(t, cfg.Output.Text)
	assert.Equal(t, 4, cfg.Parse.Workers)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/defects", cfg.Storage.DSN)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DLENS_REPOSITORY", "/srv/checkouts/other")
	t.Setenv("DLENS_OUTPUT_DIR", "/tmp/env-out")
	t.Setenv("DLENS_WORKERS", "8")
	t.Setenv("DLENS_DEFECT_LABELS", "bug, crash ,regression")
	t.Setenv("DLENS_STORAGE_BACKEND", "postgres")
	t.Setenv("DLENS_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "/srv/checkouts/other", cfg.Repository)
	assert.Equal(t, "/tmp/env-out", cfg.Output.Dir)
	assert.Equal(t, 8, cfg.Parse.Workers)
	assert.Equal(t, []string{"bug", "crash", "regression"}, cfg.Defects.Labels)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad backend",
			content: "storage:\n  backend: mysql\n",
			wantErr: "invalid storage backend",
		},
		{
			name:    "zero workers",
			content: "parse:\n  workers: 0\n",
			wantErr: "invalid worker count",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: shouting\n",
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".defectlens", "runs.db"), expandPath("~/.defectlens/runs.db"))
	assert.Equal(t, "/var/lib/dlens/runs.db", expandPath("/var/lib/dlens/runs.db"))
	assert.Equal(t, "", expandPath(""))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Output.Dir = "/tmp/saved"
	cfg.Parse.Workers = 2

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/saved", loaded.Output.Dir)
	assert.Equal(t, 2, loaded.Parse.Workers)
}

func TestCredentialManagerEnvPrecedence(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_from_env")
	t.Setenv("GH_TOKEN", "gho_secondary")

	cm := NewCredentialManager(nil)
	token, err := cm.GetGitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_from_env", token)
}

func TestCredentialManagerGHTokenFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "gho_secondary")

	cm := NewCredentialManager(nil)
	token, err := cm.GetGitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "gho_secondary", token)
}

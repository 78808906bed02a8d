package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Documents.MaxActive)
	assert.Equal(t, 10, cfg.Documents.UndoDepth)
	assert.True(t, cfg.Documents.WholeLineEdits)
	assert.Equal(t, 30*time.Second, cfg.Analyzer.Timeout())
	assert.False(t, cfg.Analyzer.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentide.yaml")
	data := `
project:
  name: demo
  root: /tmp/demo
documents:
  max_active: 5
analyzer:
  command: pylsp
  timeout_seconds: 15
terminal:
  allow: [go, git]
  timeout_seconds: 20
headers:
  ".py": "# demo header"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, 5, cfg.Documents.MaxActive)
	assert.True(t, cfg.Analyzer.Enabled())
	assert.Equal(t, "pylsp", cfg.Analyzer.Command)
	assert.Equal(t, 15*time.Second, cfg.Analyzer.Timeout())
	assert.Equal(t, []string{"go", "git"}, cfg.Terminal.Allow)
	assert.Equal(t, "# demo header", cfg.Headers[".py"])
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENTIDE_ANALYZER_COMMAND", "gopls")
	t.Setenv("AGENTIDE_MAX_ACTIVE", "7")
	t.Setenv("AGENTIDE_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gopls", cfg.Analyzer.Command)
	assert.Equal(t, 7, cfg.Documents.MaxActive)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Documents.MaxActive = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.Log.Level = "shout"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents: [not a map"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

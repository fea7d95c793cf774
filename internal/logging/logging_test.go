package logging

import (
	"bytes"
	"encoding/json"
	log "log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, log.LevelInfo, "")
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("Saved new version", "version", "prog_v1.py")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "Saved new version")
	assert.Contains(t, buf.String(), "prog_v1.py")
}

func TestNewFanoutToFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "acg.log")

	logger, closer, err := New(&buf, log.LevelInfo, file)
	require.NoError(t, err)

	logger.Info("Launched", "pid", 42)
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), "Launched")

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "Launched", rec["msg"])
	assert.EqualValues(t, 42, rec["pid"])
}

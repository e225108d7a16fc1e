package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestLogger_WritesJSONEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.log")
	logger, err := NewLogger(path, LevelInfo)
	require.NoError(t, err)

	logger.Info("epoch complete", "epoch", 3, "content_loss", 0.25)
	logger.Debug("should be filtered at INFO")
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "epoch complete", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, float64(3), entries[0]["epoch"])
	assert.Equal(t, 0.25, entries[0]["content_loss"])
}

func TestLogger_ChildAttrsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.log")
	logger, err := NewLogger(path, LevelDebug)
	require.NoError(t, err)

	child := logger.WithRun("run-42").WithEpoch(7)
	child.Debug("batch trained", "batch", 1)
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-42", entries[0]["run_id"])
	assert.Equal(t, float64(7), entries[0]["epoch"])
	assert.Equal(t, float64(1), entries[0]["batch"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"Warn", "WARN"},
		{"ERROR", "ERROR"},
		{"nonsense", "INFO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in).Level().String(), "input %q", tt.in)
	}
}

func TestNopLogger_DiscardsWithoutError(t *testing.T) {
	logger := NopLogger()
	logger.Info("into the void")
	assert.NoError(t, logger.Close())
}

package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestInitJSONFiltersByLevel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nbcontents.log")

	require.NoError(t, Init(Config{Level: "WARN", Format: "json", Output: out}))
	t.Cleanup(func() { _ = Init(Config{Level: "INFO"}) })

	Info("dropped %d", 1)
	Warn("kept %s", "warning")
	require.NoError(t, Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "kept warning", entry["msg"])
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("INFO") })

	SetLevel("debug")
	assert.Equal(t, LevelDebug, GetLevel())

	SetLevel("nonsense")
	assert.Equal(t, LevelDebug, GetLevel(), "unknown levels are ignored")
}

func TestInitRejectsBadConfig(t *testing.T) {
	assert.Error(t, Init(Config{Level: "LOUD"}))
	assert.Error(t, Init(Config{Level: "INFO", Format: "xml"}))
}

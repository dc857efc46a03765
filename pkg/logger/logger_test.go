package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"math_missions_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	cases := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{"debug", "", zapcore.DebugLevel},
		{"release", "", zapcore.InfoLevel},
		{"debug", "warn", zapcore.WarnLevel},
		{"release", "nonsense", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		cfg := &config.Config{Server: config.ServerConfig{Mode: tc.mode}, Log: config.LogConfig{Level: tc.level}}
		assert.Equal(t, tc.want, Level(cfg), "%s/%s", tc.mode, tc.level)
	}
}

func TestNewWritesJSONToConfiguredFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Log:    config.LogConfig{File: file, MaxSizeMB: 1},
	}

	log := New(cfg)
	log.Debug("hidden")
	log.Info("Mission attempt recorded", zap.Uint("missionID", 7))
	_ = log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Mission attempt recorded", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "math-missions", entry["service"])
	assert.Equal(t, float64(7), entry["missionID"])
}

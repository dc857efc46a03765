package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  path: ":memory:"
jwt:
  secret: short
  expire_hours: 2
storage:
  type: minio
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 10, cfg.Missions.PerTypeCap)
	assert.Equal(t, 5*time.Minute, cfg.Missions.CacheTTL())
	assert.Equal(t, 5, cfg.Polya.MaxConfidence)
	assert.Equal(t, 10, cfg.Quiz.Spread)
	assert.Equal(t, 4, cfg.Quiz.Choices)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidQuizSettings(t *testing.T) {
	dir := writeConfig(t, `
jwt:
  secret: x
storage:
  type: minio
quiz:
  spread: 2
  choices: 4
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

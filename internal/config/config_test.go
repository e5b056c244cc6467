package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkmon/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "Asia/Shanghai", cfg.TimeZone)
	assert.Equal(t, 30, cfg.StatsWindowDays)
	assert.False(t, cfg.RetentionSweep)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, 5, cfg.Monitor.BatchSize)
	assert.Equal(t, 50, cfg.Monitor.MaxCheckLimit)
	assert.Equal(t, "luoy-oss/friend_link", cfg.GitHub.Repo)
	assert.Equal(t, 100, cfg.GitHub.PerPage)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONITOR_TIMEOUT", "5s")
	t.Setenv("MONITOR_BATCH_SIZE", "not-a-number")
	t.Setenv("RETENTION_SWEEP", "true")
	t.Setenv("GITHUB_RATE_LIMIT", "0.5")
	t.Setenv("CHECK_SCHEDULE", "")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, 5, cfg.Monitor.BatchSize, "malformed numbers keep the default")
	assert.True(t, cfg.RetentionSweep)
	assert.Equal(t, 0.5, cfg.GitHub.RateLimit)
	assert.Equal(t, "", cfg.CheckSchedule)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "linkmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Overlay(t *testing.T) {
	path := writeFile(t, `
database:
  driver: postgres
  url: postgres://localhost/linkmon
timeZone: UTC
monitor:
  timeout: 10s
  maxChecks: 0
identities:
  - name: slurp
    userAgent: "Mozilla/5.0 (compatible; Yahoo! Slurp)"
    referer: https://search.yahoo.com/
`)
	cfg := Load()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/linkmon", cfg.DatabaseURL)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, 10*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, 0, cfg.Monitor.MaxCheckLimit)
	assert.Equal(t, 5, cfg.Monitor.BatchSize, "absent keys are untouched")
	assert.Nil(t, cfg.Monitor.Primary)
	assert.Equal(t, []models.Identity{{Name: "slurp", UserAgent: "Mozilla/5.0 (compatible; Yahoo! Slurp)", Referer: "https://search.yahoo.com/"}}, cfg.Monitor.Identities)
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Load()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, cfg.LoadFile(writeFile(t, "monitor: [not, a, map")))
	assert.Error(t, cfg.LoadFile(writeFile(t, "monitor:\n  timeout: soon\n")))
	assert.Error(t, cfg.LoadFile(writeFile(t, "identities:\n  - name: blank\n")))
}

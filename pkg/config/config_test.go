package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFileGiven(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Pipeline.BatchSize)
	require.Equal(t, 5*time.Second, cfg.Pipeline.PollInterval)
	require.Equal(t, 60*time.Minute, cfg.Pipeline.CorrelationWindow)
	require.Equal(t, 70, cfg.Pipeline.AlertThresholdRiskScore)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
pipeline:
  batch_size: 25
  poll_interval_seconds: 15
  correlation_window_minutes: 30
  alert_threshold_severity: "CRITICAL"
  alert_threshold_risk_score: 85
redis:
  addr: "redis.internal:6379"
  queue_name: "custom-queue"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Pipeline.BatchSize)
	require.Equal(t, 15*time.Second, cfg.Pipeline.PollInterval)
	require.Equal(t, 30*time.Minute, cfg.Pipeline.CorrelationWindow)
	require.Equal(t, "CRITICAL", cfg.Pipeline.AlertThresholdSeverity)
	require.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}

func TestLoadToleratesMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Pipeline.BatchSize)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE", "50")
	t.Setenv("ALERT_THRESHOLD_SEVERITY", "CRITICAL")
	t.Setenv("REDIS_ADDR", "queue.example.com:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Pipeline.BatchSize)
	require.Equal(t, "CRITICAL", cfg.Pipeline.AlertThresholdSeverity)
	require.Equal(t, "queue.example.com:6379", cfg.Redis.Addr)
}

func TestLoadIgnoresUnparsableEnvInt(t *testing.T) {
	t.Setenv("BATCH_SIZE", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Pipeline.BatchSize)
}

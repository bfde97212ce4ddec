// Package config loads the pipeline's runtime configuration from an
// optional YAML file with environment-variable overrides; env always wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kestrel-security/sentinel/internal/database"
)

// Pipeline holds the processor's poll/batch/correlation-window/
// alert-threshold knobs.
type Pipeline struct {
	BatchSize                int           `yaml:"batch_size"`
	PollInterval             time.Duration `yaml:"-"`
	PollIntervalSeconds      int           `yaml:"poll_interval_seconds"`
	CorrelationWindow        time.Duration `yaml:"-"`
	CorrelationWindowMinutes int           `yaml:"correlation_window_minutes"`
	AlertThresholdSeverity   string        `yaml:"alert_threshold_severity"`
	AlertThresholdRiskScore  int           `yaml:"alert_threshold_risk_score"`
}

// Redis holds the connection settings shared by pkg/queue/redis and
// pkg/alert/redissink.
type Redis struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	QueueName    string `yaml:"queue_name"`
	AlertChannel string `yaml:"alert_channel"`
}

// Slack holds the slacksink connection settings. Either field left empty
// disables the Slack sink entirely.
type Slack struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// Logging controls pkg/shared/logging's output format and level.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root configuration document for cmd/processor,
// cmd/ingestor, and cmd/queryapi.
type Config struct {
	Pipeline Pipeline        `yaml:"pipeline"`
	Database database.Config `yaml:"database"`
	Redis    Redis           `yaml:"redis"`
	Slack    Slack           `yaml:"slack"`
	Logging  Logging         `yaml:"logging"`
}

// Default returns the service defaults: batch size 10, 5s poll interval,
// 60 minute correlation window, HIGH severity alerting enabled, risk score
// floor of 70.
func Default() *Config {
	dbCfg := database.DefaultConfig()
	return &Config{
		Pipeline: Pipeline{
			BatchSize:                10,
			PollInterval:             5 * time.Second,
			PollIntervalSeconds:      5,
			CorrelationWindow:        60 * time.Minute,
			CorrelationWindowMinutes: 60,
			AlertThresholdSeverity:   "HIGH",
			AlertThresholdRiskScore:  70,
		},
		Database: *dbCfg,
		Redis: Redis{
			Addr:         "localhost:6379",
			QueueName:    "sentinel:events",
			AlertChannel: "sentinel:alerts",
		},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load reads path (if non-empty and present) as YAML over the defaults,
// then applies environment-variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.resolveDurations()
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := envInt("BATCH_SIZE"); ok {
		cfg.Pipeline.BatchSize = v
	}
	if v, ok := envInt("POLL_INTERVAL_SECONDS"); ok {
		cfg.Pipeline.PollIntervalSeconds = v
	}
	if v, ok := envInt("CORRELATION_WINDOW_MINUTES"); ok {
		cfg.Pipeline.CorrelationWindowMinutes = v
	}
	if v, ok := os.LookupEnv("ALERT_THRESHOLD_SEVERITY"); ok {
		cfg.Pipeline.AlertThresholdSeverity = v
	}
	if v, ok := envInt("ALERT_THRESHOLD_RISK_SCORE"); ok {
		cfg.Pipeline.AlertThresholdRiskScore = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v, ok := os.LookupEnv("SLACK_TOKEN"); ok {
		cfg.Slack.Token = v
	}
	if v, ok := os.LookupEnv("SLACK_CHANNEL"); ok {
		cfg.Slack.Channel = v
	}
	cfg.Database.LoadFromEnv()
}

func (c *Config) resolveDurations() {
	c.Pipeline.PollInterval = time.Duration(c.Pipeline.PollIntervalSeconds) * time.Second
	c.Pipeline.CorrelationWindow = time.Duration(c.Pipeline.CorrelationWindowMinutes) * time.Minute
}

func envInt(key string) (int, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"linkmon/internal/models"
)

// Config holds the application's configuration values.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	HTTPPort       string
	ShutdownGrace  time.Duration

	CheckSchedule   string
	TimeZone        string
	StatsWindowDays int
	RetentionSweep  bool
	HistoryPageSize int

	LogLevel  string
	LogFormat string

	GitHub  GitHubConfig
	Monitor MonitorConfig
}

// GitHubConfig selects the issues candidates are read from.
type GitHubConfig struct {
	APIURL    string
	Repo      string
	Label     string
	State     string
	Sort      string
	Direction string
	PerPage   int
	MaxPages  int
	Token     string
	RateLimit float64
}

// MonitorConfig tunes probing.
type MonitorConfig struct {
	Timeout       time.Duration
	BatchSize     int
	MaxCheckLimit int
	UserAgent     string
	RetryCount    int
	BackoffMin    time.Duration
	BackoffMax    time.Duration

	// Primary and Identities override the built-in identity ladder when set.
	Primary    *models.Identity
	Identities []models.Identity
}

// Load loads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "linkmon.db"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		ShutdownGrace:  getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),

		CheckSchedule:   getEnv("CHECK_SCHEDULE", "@every 1h"),
		TimeZone:        getEnv("TIME_ZONE", "Asia/Shanghai"),
		StatsWindowDays: getEnvInt("STATS_WINDOW_DAYS", 30),
		RetentionSweep:  getEnvBool("RETENTION_SWEEP", false),
		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 20),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		GitHub: GitHubConfig{
			APIURL:    getEnv("GITHUB_API_URL", "https://api.github.com"),
			Repo:      getEnv("GITHUB_REPO", "luoy-oss/friend_link"),
			Label:     getEnv("GITHUB_ISSUE_LABEL", "active"),
			State:     getEnv("GITHUB_ISSUE_STATE", "all"),
			Sort:      getEnv("GITHUB_ISSUE_SORT", "created"),
			Direction: getEnv("GITHUB_ISSUE_DIRECTION", "asc"),
			PerPage:   getEnvInt("GITHUB_ISSUE_PER_PAGE", 100),
			MaxPages:  getEnvInt("GITHUB_ISSUE_MAX_PAGES", 5),
			Token:     getEnv("GITHUB_TOKEN", ""),
			RateLimit: getEnvFloat("GITHUB_RATE_LIMIT", 2),
		},

		Monitor: MonitorConfig{
			Timeout:       getEnvDuration("MONITOR_TIMEOUT", 30*time.Second),
			BatchSize:     getEnvInt("MONITOR_BATCH_SIZE", 5),
			MaxCheckLimit: getEnvInt("MONITOR_MAX_CHECK_LIMIT", 50),
			UserAgent:     getEnv("MONITOR_USER_AGENT", "Blog-Link-Monitoring-Bot"),
			RetryCount:    getEnvInt("MONITOR_RETRY_COUNT", 0),
			BackoffMin:    getEnvDuration("MONITOR_BACKOFF_MIN", 500*time.Millisecond),
			BackoffMax:    getEnvDuration("MONITOR_BACKOFF_MAX", 1500*time.Millisecond),
		},
	}
}

// fileConfig is the YAML overlay. Only keys present in the file are applied.
type fileConfig struct {
	Database *struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	HTTPPort      string  `yaml:"httpPort"`
	CheckSchedule *string `yaml:"checkSchedule"`
	TimeZone      string  `yaml:"timeZone"`
	GitHub        *struct {
		Repo     string `yaml:"repo"`
		Label    string `yaml:"label"`
		MaxPages int    `yaml:"maxPages"`
	} `yaml:"github"`
	Monitor *struct {
		Timeout    string `yaml:"timeout"`
		BatchSize  int    `yaml:"batchSize"`
		MaxChecks  *int   `yaml:"maxChecks"`
		RetryCount *int   `yaml:"retryCount"`
	} `yaml:"monitor"`
	Primary    *models.Identity  `yaml:"primary"`
	Identities []models.Identity `yaml:"identities"`
}

// LoadFile applies the YAML overlay at path on top of cfg.
func (cfg *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Database != nil {
		setString(&cfg.DatabaseDriver, fc.Database.Driver)
		setString(&cfg.DatabaseURL, fc.Database.URL)
	}
	setString(&cfg.HTTPPort, fc.HTTPPort)
	if fc.CheckSchedule != nil {
		cfg.CheckSchedule = *fc.CheckSchedule
	}
	setString(&cfg.TimeZone, fc.TimeZone)
	if fc.GitHub != nil {
		setString(&cfg.GitHub.Repo, fc.GitHub.Repo)
		setString(&cfg.GitHub.Label, fc.GitHub.Label)
		if fc.GitHub.MaxPages > 0 {
			cfg.GitHub.MaxPages = fc.GitHub.MaxPages
		}
	}
	if m := fc.Monitor; m != nil {
		if m.Timeout != "" {
			d, err := time.ParseDuration(m.Timeout)
			if err != nil {
				return fmt.Errorf("invalid monitor.timeout in %s: %w", path, err)
			}
			cfg.Monitor.Timeout = d
		}
		if m.BatchSize > 0 {
			cfg.Monitor.BatchSize = m.BatchSize
		}
		if m.MaxChecks != nil {
			cfg.Monitor.MaxCheckLimit = *m.MaxChecks
		}
		if m.RetryCount != nil {
			cfg.Monitor.RetryCount = *m.RetryCount
		}
	}
	if fc.Primary != nil {
		if fc.Primary.UserAgent == "" {
			return fmt.Errorf("primary identity in %s has no userAgent", path)
		}
		cfg.Monitor.Primary = fc.Primary
	}
	for i, id := range fc.Identities {
		if id.UserAgent == "" {
			return fmt.Errorf("identity %d (%s) in %s has no userAgent", i, id.Name, path)
		}
	}
	if len(fc.Identities) > 0 {
		cfg.Monitor.Identities = fc.Identities
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Helper function to get an environment variable or return a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer.
func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// Helper function to get an environment variable as a time.Duration.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

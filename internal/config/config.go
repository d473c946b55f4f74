package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Feed    FeedConfig
	Geo     GeoConfig
	Mail    MailConfig
	Alerts  AlertsConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type FeedConfig struct {
	Enabled      bool
	URL          string
	PollInterval time.Duration
	Months       int
}

type GeoConfig struct {
	// Path to a MaxMind city database. Empty disables IP geolocation;
	// the dashboard then degrades to recency sorting unless clients
	// supply coordinates themselves.
	DBPath string
}

type MailConfig struct {
	Endpoint string
	APIKey   string
	From     string
	// Addresses notified when a new alert report is accepted.
	NotifyList []string
}

type AlertsConfig struct {
	DefaultMonthsBack int
	RetentionMonths   int
	MediaDir          string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Feed: FeedConfig{
			Enabled:      getEnvBool("FEED_ENABLED", true),
			URL:          getEnv("FEED_URL", "https://feeds.alertwatch.example/v1"),
			PollInterval: getEnvDuration("FEED_POLL_INTERVAL", 10*time.Minute),
			Months:       getEnvInt("FEED_MONTHS", 12),
		},
		Geo: GeoConfig{
			DBPath: getEnv("GEOIP_DB_PATH", ""),
		},
		Mail: MailConfig{
			Endpoint:   getEnv("MAIL_ENDPOINT", ""),
			APIKey:     getEnv("MAIL_API_KEY", ""),
			From:       getEnv("MAIL_FROM", "alerts@alertwatch.example"),
			NotifyList: splitList(getEnv("MAIL_NOTIFY_LIST", "")),
		},
		Alerts: AlertsConfig{
			DefaultMonthsBack: getEnvInt("ALERTS_DEFAULT_MONTHS", 3),
			RetentionMonths:   getEnvInt("ALERTS_RETENTION_MONTHS", 24),
			MediaDir:          getEnv("ALERTS_MEDIA_DIR", "./data/media"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/alertwatch.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Feed.Enabled && c.Feed.PollInterval < time.Minute {
		return fmt.Errorf("feed poll interval must be at least 1 minute")
	}
	if c.Alerts.DefaultMonthsBack < 1 {
		return fmt.Errorf("default months window must be positive")
	}
	if c.Alerts.RetentionMonths < c.Alerts.DefaultMonthsBack {
		return fmt.Errorf("retention window shorter than default filter window")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

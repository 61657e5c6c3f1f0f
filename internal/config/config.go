package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/pkg/logger"
)

type Config struct {
	Port        string
	DatabaseURL string

	LogLevel    string
	LogEncoding string

	MaxUsers             int
	MaxTasks             int
	HistoryCapacity      int
	NotificationCapacity int
	SnapshotRetention    int

	AutosaveInterval time.Duration
	ShutdownTimeout  time.Duration
}

// Load reads the environment (and .env when present). An empty DATABASE_URL
// disables snapshot persistence.
func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		Port:        getString("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel:    getString("LOG_LEVEL", "info"),
		LogEncoding: getString("LOG_ENCODING", "json"),

		MaxUsers:             getInt("MAX_USERS", 20),
		MaxTasks:             getInt("MAX_TASKS", 0),
		HistoryCapacity:      getInt("HISTORY_CAPACITY", 128),
		NotificationCapacity: getInt("NOTIFICATION_CAPACITY", 200),
		SnapshotRetention:    getInt("SNAPSHOT_RETENTION", 10),

		AutosaveInterval: getDuration("AUTOSAVE_INTERVAL", 0),
		ShutdownTimeout:  getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func (c Config) Service() service.Config {
	return service.Config{
		MaxUsers:             c.MaxUsers,
		MaxTasks:             c.MaxTasks,
		HistoryCapacity:      c.HistoryCapacity,
		NotificationCapacity: c.NotificationCapacity,
		SnapshotRetention:    c.SnapshotRetention,
	}
}

func (c Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Encoding: c.LogEncoding}
}

func (c Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

// getDuration accepts both "30s" and a plain number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if parsed, err := time.ParseDuration(v); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

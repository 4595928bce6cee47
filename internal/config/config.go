package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration
type Config struct {
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Bot       BotConfig
	Quiz      QuizConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	LearnerID string
	LogLevel  slog.Level
}

type DatabaseConfig struct {
	Type string // sqlite or postgres
	Path string
	URL  string
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

type BotConfig struct {
	Token string
}

type QuizConfig struct {
	DefaultCount int
	OptionCount  int
}

type CacheConfig struct {
	MaxKeys int64
	TTL     time.Duration
}

type SchedulerConfig struct {
	Enabled       bool
	CheckpointTTL time.Duration
	ReminderHour  int
}

// Load reads .env files (if present) and then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := FromEnv()
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from environment variables with defaults
func FromEnv() Config {
	return Config{
		Database: DatabaseConfig{
			Type: strings.ToLower(envString("DB_TYPE", "sqlite")),
			Path: envString("DB_PATH", "data/wordwise.db"),
			URL:  envString("DB_URL", ""),
		},
		HTTP: HTTPConfig{
			Addr:        envString("HTTP_ADDR", ":8080"),
			CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
		},
		Bot: BotConfig{
			Token: envString("TELEGRAM_BOT_TOKEN", ""),
		},
		Quiz: QuizConfig{
			DefaultCount: envInt("QUIZ_DEFAULT_COUNT", 20),
			OptionCount:  envInt("QUIZ_OPTION_COUNT", 4),
		},
		Cache: CacheConfig{
			MaxKeys: int64(envInt("CORPUS_CACHE_MAX_KEYS", 1000)),
			TTL:     envDuration("CORPUS_CACHE_TTL", 10*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled:       envBool("SCHEDULER_ENABLED", true),
			CheckpointTTL: envDuration("CHECKPOINT_TTL", 24*time.Hour),
			ReminderHour:  envInt("REMINDER_HOUR", 9),
		},
		LearnerID: envString("LEARNER_ID", "default"),
		LogLevel:  parseLogLevel(envString("LOG_LEVEL", "info")),
	}
}

// Validate checks values that have no sensible fallback
func (c Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DB_URL is required when DB_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}
	if c.Quiz.DefaultCount <= 0 {
		return fmt.Errorf("QUIZ_DEFAULT_COUNT must be positive")
	}
	if c.Quiz.OptionCount < 2 {
		return fmt.Errorf("QUIZ_OPTION_COUNT must be at least 2")
	}
	if c.Scheduler.ReminderHour < 0 || c.Scheduler.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23")
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "data/wordwise.db", cfg.Database.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 20, cfg.Quiz.DefaultCount)
	assert.Equal(t, 4, cfg.Quiz.OptionCount)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "default", cfg.LearnerID)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "Postgres")
	t.Setenv("DB_URL", "postgres://localhost/wordwise")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("QUIZ_DEFAULT_COUNT", "15")
	t.Setenv("CHECKPOINT_TTL", "2h")
	t.Setenv("SCHEDULER_ENABLED", "0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := FromEnv()

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 15, cfg.Quiz.DefaultCount)
	assert.Equal(t, 2*time.Hour, cfg.Scheduler.CheckpointTTL)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("QUIZ_OPTION_COUNT", "four")
	t.Setenv("CORPUS_CACHE_TTL", "soon")

	cfg := FromEnv()

	assert.Equal(t, 4, cfg.Quiz.OptionCount)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without url", func(c *Config) { c.Database.Type = "postgres"; c.Database.URL = "" }},
		{"unknown driver", func(c *Config) { c.Database.Type = "mysql" }},
		{"zero questions", func(c *Config) { c.Quiz.DefaultCount = 0 }},
		{"single option", func(c *Config) { c.Quiz.OptionCount = 1 }},
		{"bad reminder hour", func(c *Config) { c.Scheduler.ReminderHour = 24 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEARNER_ID=alice\nREMINDER_HOUR=7\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("LEARNER_ID")
		os.Unsetenv("REMINDER_HOUR")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.LearnerID)
	assert.Equal(t, 7, cfg.Scheduler.ReminderHour)
}

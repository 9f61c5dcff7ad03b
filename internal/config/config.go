package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/example/vocabpack/internal/database"
	"github.com/example/vocabpack/internal/spaced_repetition"
)

// Config holds application configuration
type Config struct {
	DBType      string `env:"DB_TYPE" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"data/vocabpack.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	VocabRoot    string `env:"VOCAB_ROOT" envDefault:"."`
	VocabSources string `env:"VOCAB_SOURCES" envDefault:"data/sources.json"`

	PackSize   int `env:"PACK_SIZE" envDefault:"20"`
	GapKnown   int `env:"GAP_KNOWN" envDefault:"10"`
	GapUnsure  int `env:"GAP_UNSURE" envDefault:"3"`
	GapUnknown int `env:"GAP_UNKNOWN" envDefault:"1"`

	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	OwnerChatID   int64  `env:"OWNER_CHAT_ID"`

	EnableScheduler       bool          `env:"ENABLE_SCHEDULER" envDefault:"true"`
	ReminderInterval      time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`
	NotificationStartHour int           `env:"NOTIFICATION_START_HOUR" envDefault:"8"`
	NotificationEndHour   int           `env:"NOTIFICATION_END_HOUR" envDefault:"22"`
}

// Load reads .env files (if any) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	switch c.DBType {
	case database.TypeSQLite:
	case database.TypePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_TYPE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_TYPE must be sqlite or postgres, got %q", c.DBType))
	}
	if c.TelegramToken != "" && c.OwnerChatID == 0 {
		errs = append(errs, errors.New("OWNER_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	if c.PackSize < 1 {
		errs = append(errs, fmt.Errorf("PACK_SIZE must be positive, got %d", c.PackSize))
	}
	for name, gap := range map[string]int{"GAP_KNOWN": c.GapKnown, "GAP_UNSURE": c.GapUnsure, "GAP_UNKNOWN": c.GapUnknown} {
		if gap < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", name, gap))
		}
	}
	for name, h := range map[string]int{"NOTIFICATION_START_HOUR": c.NotificationStartHour, "NOTIFICATION_END_HOUR": c.NotificationEndHour} {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("%s must be within 0-23, got %d", name, h))
		}
	}
	if c.ReminderInterval <= 0 {
		errs = append(errs, fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval))
	}
	return errors.Join(errs...)
}

// Database returns the state store settings
func (c *Config) Database() database.Config {
	return database.Config{Type: c.DBType, Path: c.DBPath, URL: c.DatabaseURL}
}

// Gaps returns the session gaps per grade
func (c *Config) Gaps() spaced_repetition.SessionGaps {
	return spaced_repetition.SessionGaps{
		Known:   c.GapKnown,
		Unsure:  c.GapUnsure,
		Unknown: c.GapUnknown,
	}
}

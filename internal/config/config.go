// Package config reads process configuration from BABYCARE_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dukerupert/babycare/internal/model"
)

const Prefix = "BABYCARE_"

type Config struct {
	BotToken       string        `env:"BOT_TOKEN"`
	TelegramAPIURL string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT"     envDefault:"30s"`
	AllowedUsers   []int64       `env:"ALLOWED_USERS"    envSeparator:","`

	DBPath   string `env:"DB_PATH"   envDefault:"babycare.db"`
	Port     string `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone string `env:"TIMEZONE"  envDefault:"Asia/Bangkok"`

	FeedCheckInterval   time.Duration `env:"FEED_CHECK_INTERVAL"   envDefault:"30m"`
	DiaperCheckInterval time.Duration `env:"DIAPER_CHECK_INTERVAL" envDefault:"30m"`
	BathCheckInterval   time.Duration `env:"BATH_CHECK_INTERVAL"   envDefault:"1m"`
	TipsAt              string        `env:"TIPS_AT"               envDefault:"09:00"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT"          envDefault:"10s"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY"  envDefault:"4"`

	TokenSecret  string        `env:"TOKEN_SECRET"`
	InviteTTL    time.Duration `env:"INVITE_TTL"    envDefault:"48h"`
	DashboardTTL time.Duration `env:"DASHBOARD_TTL" envDefault:"24h"`
	PublicURL    string        `env:"PUBLIC_URL"    envDefault:"http://localhost:8080"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, fmt.Errorf("%sBOT_TOKEN is required", Prefix))
	}
	if c.TokenSecret == "" {
		errs = append(errs, fmt.Errorf("%sTOKEN_SECRET is required", Prefix))
	}
	for name, d := range map[string]time.Duration{
		"FEED_CHECK_INTERVAL":   c.FeedCheckInterval,
		"DIAPER_CHECK_INTERVAL": c.DiaperCheckInterval,
		"BATH_CHECK_INTERVAL":   c.BathCheckInterval,
		"SEND_TIMEOUT":          c.SendTimeout,
		"POLL_TIMEOUT":          c.PollTimeout,
		"INVITE_TTL":            c.InviteTTL,
		"DASHBOARD_TTL":         c.DashboardTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s%s must be positive, got %s", Prefix, name, d))
		}
	}
	if c.DispatchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("%sDISPATCH_CONCURRENCY must be at least 1", Prefix))
	}
	if _, err := model.ParseClockTime(c.TipsAt); err != nil {
		errs = append(errs, fmt.Errorf("%sTIPS_AT: %w", Prefix, err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%sTIMEZONE: %w", Prefix, err))
	}
	return errors.Join(errs...)
}

// TipsTime returns TIPS_AT as a clock time. It is only meaningful after
// Validate succeeded.
func (c Config) TipsTime() model.ClockTime {
	t, _ := model.ParseClockTime(c.TipsAt)
	return t
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

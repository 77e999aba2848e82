// Package config loads the service configuration from a JSON file with
// CUSTODY_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// Config holds the service's runtime configuration.
type Config struct {
	DBPath     string `json:"db_path" env:"CUSTODY_DB_PATH"`
	ListenAddr string `json:"listen_addr" env:"CUSTODY_LISTEN_ADDR"`

	// RulesPath and SchoolCalendarPath point at YAML files. Empty selects
	// the built-in court order and school calendar.
	RulesPath          string `json:"rules_path" env:"CUSTODY_RULES_PATH"`
	SchoolCalendarPath string `json:"school_calendar_path" env:"CUSTODY_SCHOOL_CALENDAR_PATH"`

	TimeZone      string `json:"time_zone" env:"CUSTODY_TIME_ZONE"`
	DefaultParent string `json:"default_parent" env:"CUSTODY_DEFAULT_PARENT"`

	LogLevel  string `json:"log_level" env:"CUSTODY_LOG_LEVEL"`
	LogFormat string `json:"log_format" env:"CUSTODY_LOG_FORMAT"`

	SyncEnabled     bool          `json:"sync_enabled" env:"CUSTODY_SYNC_ENABLED"`
	SyncCron        string        `json:"sync_cron" env:"CUSTODY_SYNC_CRON"`
	SyncHorizonDays int           `json:"sync_horizon_days" env:"CUSTODY_SYNC_HORIZON_DAYS"`
	SyncTimeout     time.Duration `json:"sync_timeout" env:"CUSTODY_SYNC_TIMEOUT"`

	RateLimitPerMinute int `json:"rate_limit_per_minute" env:"CUSTODY_RATE_LIMIT_PER_MINUTE"`
	MaxWindowDays      int `json:"max_window_days" env:"CUSTODY_MAX_WINDOW_DAYS"`
}

// Load reads a JSON config file, applies environment overrides and
// defaults, and validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config JSON: %w", err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "custody.db"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":9800"
	}
	if c.TimeZone == "" {
		c.TimeZone = calendar.DefaultZone
	}
	if c.DefaultParent == "" {
		c.DefaultParent = string(domain.Mother)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.SyncCron == "" {
		c.SyncCron = "0 * * * *"
	}
	if c.SyncHorizonDays == 0 {
		c.SyncHorizonDays = 90
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = 2 * time.Minute
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if c.MaxWindowDays == 0 {
		c.MaxWindowDays = 731
	}
}

func (c *Config) validate() error {
	var problems []string

	if _, err := calendar.LoadZone(c.TimeZone); err != nil {
		problems = append(problems, fmt.Sprintf("time_zone %q is not a known zone", c.TimeZone))
	}
	if !domain.Parent(c.DefaultParent).Valid() {
		problems = append(problems, "default_parent must be mother or father")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is invalid", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, "log_format must be text or json")
	}
	if _, err := cron.ParseStandard(c.SyncCron); err != nil {
		problems = append(problems, fmt.Sprintf("sync_cron %q is invalid", c.SyncCron))
	}
	if c.SyncHorizonDays < 1 {
		problems = append(problems, "sync_horizon_days must be positive")
	}
	if c.RateLimitPerMinute < 1 {
		problems = append(problems, "rate_limit_per_minute must be positive")
	}
	if c.MaxWindowDays < 1 {
		problems = append(problems, "max_window_days must be positive")
	}
	if c.SyncEnabled && c.SyncHorizonDays+1 > c.MaxWindowDays {
		problems = append(problems, "sync_horizon_days exceeds max_window_days")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}

// Location returns the configured zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := calendar.LoadZone(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewLogger builds a logrus logger from the log settings.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

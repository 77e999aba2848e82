package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/domain"
)

func validJSON() string {
	return `{
		"db_path": "/tmp/custody.db",
		"listen_addr": ":9900",
		"rules_path": "/etc/custody/rules.yaml",
		"default_parent": "father",
		"sync_enabled": true,
		"sync_cron": "*/15 * * * *"
	}`
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "config.json")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validJSON())

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/custody.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ListenAddr != ":9900" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.DefaultParent != "father" {
		t.Errorf("DefaultParent = %q", cfg.DefaultParent)
	}
	if !cfg.SyncEnabled || cfg.SyncCron != "*/15 * * * *" {
		t.Errorf("sync settings = %v %q", cfg.SyncEnabled, cfg.SyncCron)
	}
	if cfg.Location().String() != "America/Los_Angeles" {
		t.Errorf("Location = %s", cfg.Location())
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "custody.db" || cfg.ListenAddr != ":9800" {
		t.Errorf("paths = %q %q", cfg.DBPath, cfg.ListenAddr)
	}
	if cfg.TimeZone != "America/Los_Angeles" || cfg.DefaultParent != "mother" {
		t.Errorf("zone/parent = %q %q", cfg.TimeZone, cfg.DefaultParent)
	}
	if cfg.SyncHorizonDays != 90 || cfg.SyncTimeout != 2*time.Minute || cfg.SyncCron != "0 * * * *" {
		t.Errorf("sync defaults = %+v", cfg)
	}
	if cfg.RateLimitPerMinute != 120 || cfg.MaxWindowDays != 731 {
		t.Errorf("guard defaults = %d %d", cfg.RateLimitPerMinute, cfg.MaxWindowDays)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CUSTODY_LISTEN_ADDR", ":7000")
	t.Setenv("CUSTODY_SYNC_HORIZON_DAYS", "30")
	t.Setenv("CUSTODY_SYNC_TIMEOUT", "45s")
	t.Setenv("CUSTODY_LOG_FORMAT", "json")

	cfg, err := Load(writeConfig(t, t.TempDir(), validJSON()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %q, want env override", cfg.ListenAddr)
	}
	if cfg.SyncHorizonDays != 30 || cfg.SyncTimeout != 45*time.Second {
		t.Errorf("sync = %d %s", cfg.SyncHorizonDays, cfg.SyncTimeout)
	}
	if cfg.DBPath != "/tmp/custody.db" {
		t.Errorf("file value lost: %q", cfg.DBPath)
	}
	if _, ok := cfg.NewLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Error("json log format not applied")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.json"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "{not json")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantMsg string
	}{
		{"bad zone", `{"time_zone": "Mars/Olympus"}`, "time_zone"},
		{"bad parent", `{"default_parent": "grandma"}`, "default_parent"},
		{"bad level", `{"log_level": "loud"}`, "log_level"},
		{"bad format", `{"log_format": "xml"}`, "log_format"},
		{"bad cron", `{"sync_cron": "every hour"}`, "sync_cron"},
		{"negative horizon", `{"sync_horizon_days": -1}`, "sync_horizon_days"},
		{"horizon too wide", `{"sync_enabled": true, "sync_horizon_days": 400, "max_window_days": 365}`, "exceeds max_window_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.json))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, domain.ErrConfigInvalid) {
				t.Errorf("err = %v, want ErrConfigInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

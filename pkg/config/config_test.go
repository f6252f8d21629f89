package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Calendar != "primary" {
		t.Errorf("expected default calendar, got %q", cfg.Calendar)
	}
	if cfg.DBPath != filepath.Join(dir, "tasks.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.Reminders.StaleAfter != time.Hour || cfg.Reminders.PollInterval != 15*time.Second {
		t.Errorf("unexpected reminder defaults %+v", cfg.Reminders)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Prefix != "taskera" {
		t.Errorf("unexpected redis defaults %+v", cfg.Redis)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &Config{
		Account:   "me@example.com",
		Calendar:  "Work",
		Timezone:  "UTC",
		LogLevel:  "debug",
		Redis:     RedisConfig{Addr: "redis:6379", DB: 2, Prefix: "tk"},
		Reminders: RemindersConfig{StaleAfter: 90 * time.Minute, PollInterval: 5 * time.Second},
		Server:    ServerConfig{Addr: ":9000"},
	}
	if err := SaveTo(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Account != in.Account || out.Calendar != in.Calendar || out.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", out)
	}
	if out.Redis != in.Redis {
		t.Errorf("redis = %+v, want %+v", out.Redis, in.Redis)
	}
	if out.Reminders != in.Reminders {
		t.Errorf("reminders = %+v, want %+v", out.Reminders, in.Reminders)
	}
	if out.Server.Addr != ":9000" {
		t.Errorf("server addr = %q", out.Server.Addr)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("calendar: Personal\nredis:\n  addr: file:6379\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKERA_REDIS_ADDR", "env:6379")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Calendar != "Personal" {
		t.Errorf("calendar = %q", cfg.Calendar)
	}
	if cfg.Redis.Addr != "env:6379" {
		t.Errorf("expected env override, got %q", cfg.Redis.Addr)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	if loc, err := cfg.Location(); err != nil || loc != time.Local {
		t.Errorf("expected local zone, got %v %v", loc, err)
	}
	cfg.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected an error for an unknown zone")
	}
}

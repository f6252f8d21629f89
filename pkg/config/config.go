package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "taskera"
	configFile = "config.yaml"
	envPrefix  = "TASKERA"

	// DefaultCalendar is the account's primary calendar.
	DefaultCalendar = "primary"
)

type Config struct {
	Account   string          `yaml:"account" mapstructure:"account"`
	Calendar  string          `yaml:"calendar" mapstructure:"calendar"`
	Timezone  string          `yaml:"timezone,omitempty" mapstructure:"timezone"`
	DBPath    string          `yaml:"db_path,omitempty" mapstructure:"db_path"`
	LogLevel  string          `yaml:"log_level" mapstructure:"log_level"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Reminders RemindersConfig `yaml:"reminders" mapstructure:"reminders"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

type RemindersConfig struct {
	StaleAfter   time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// MarshalYAML writes durations as "1h0m0s" rather than nanoseconds.
func (r RemindersConfig) MarshalYAML() (any, error) {
	return map[string]string{
		"stale_after":   r.StaleAfter.String(),
		"poll_interval": r.PollInterval.String(),
	}, nil
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Location resolves the configured time zone, the system zone when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Dir is ~/.config/taskera. Credentials, token and database live there too.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("account", "local")
	v.SetDefault("calendar", DefaultCalendar)
	v.SetDefault("timezone", "")
	v.SetDefault("db_path", filepath.Join(dir, "tasks.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", xdgAppName)
	v.SetDefault("reminders.stale_after", time.Hour)
	v.SetDefault("reminders.poll_interval", 15*time.Second)
	v.SetDefault("server.addr", "127.0.0.1:8080")
}

// LoadDotEnv loads a .env file from the working directory when present.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads the config file from the default location.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults; a missing file is not an error.
// TASKERA_* environment variables override both, e.g. TASKERA_REDIS_ADDR.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, filepath.Dir(path))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
	return &cfg, nil
}

// Save writes cfg to the default location.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

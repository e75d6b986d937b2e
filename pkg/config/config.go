// Package config loads gantta settings from defaults, a YAML file and
// GANTTA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

const (
	xdgAppName = "gantta"
	configFile = "config.yaml"
	envPrefix  = "GANTTA"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`

	// Strict rejects duplicate ids on create and unknown ids on edit/delete.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Key        string `yaml:"key" mapstructure:"key"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	RedisURL   string `yaml:"redis_url" mapstructure:"redis_url"`
	QuotaBytes int    `yaml:"quota_bytes" mapstructure:"quota_bytes"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type TimelineConfig struct {
	Mode   string `yaml:"mode" mapstructure:"mode"`
	Locale string `yaml:"locale" mapstructure:"locale"`
}

type CalendarConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	Name          string `yaml:"name" mapstructure:"name"`
	SyncSchedule  string `yaml:"sync_schedule" mapstructure:"sync_schedule"`
	SweepSchedule string `yaml:"sweep_schedule" mapstructure:"sweep_schedule"`
	SyncOnChange  bool   `yaml:"sync_on_change" mapstructure:"sync_on_change"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    "file",
			Dir:        filepath.Join("~", ".config", xdgAppName),
			Key:        "tareas",
			SQLitePath: filepath.Join("~", ".config", xdgAppName, "gantta.db"),
			RedisURL:   "redis://localhost:6379/0",
		},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Timeline: TimelineConfig{Mode: string(timeline.DefaultMode), Locale: string(timeline.DefaultLocale)},
		Calendar: CalendarConfig{
			Name:          "Tasks",
			SyncSchedule:  "@every 15m",
			SweepSchedule: "@hourly",
			SyncOnChange:  true,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Dir is the per-user configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load merges defaults, the YAML file at path and the environment. An empty
// path means DefaultPath, which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.key", d.Store.Key)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.redis_url", d.Store.RedisURL)
	v.SetDefault("store.quota_bytes", d.Store.QuotaBytes)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("timeline.mode", d.Timeline.Mode)
	v.SetDefault("timeline.locale", d.Timeline.Locale)
	v.SetDefault("calendar.enabled", d.Calendar.Enabled)
	v.SetDefault("calendar.name", d.Calendar.Name)
	v.SetDefault("calendar.sync_schedule", d.Calendar.SyncSchedule)
	v.SetDefault("calendar.sweep_schedule", d.Calendar.SweepSchedule)
	v.SetDefault("calendar.sync_on_change", d.Calendar.SyncOnChange)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("strict", d.Strict)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Backend {
	case "file", "memory", "sqlite", "redis":
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q (want file, memory, sqlite or redis)", c.Store.Backend))
	}
	if strings.TrimSpace(c.Store.Key) == "" {
		problems = append(problems, "store.key must not be empty")
	}
	if c.Store.QuotaBytes < 0 {
		problems = append(problems, "store.quota_bytes must not be negative")
	}
	if _, err := timeline.ParseViewMode(c.Timeline.Mode); err != nil {
		problems = append(problems, "timeline.mode: "+err.Error())
	}
	if _, err := timeline.ParseLocale(c.Timeline.Locale); err != nil {
		problems = append(problems, "timeline.locale: "+err.Error())
	}
	for _, sched := range []struct{ key, spec string }{
		{"calendar.sync_schedule", c.Calendar.SyncSchedule},
		{"calendar.sweep_schedule", c.Calendar.SweepSchedule},
	} {
		if sched.spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(sched.spec); err != nil {
			problems = append(problems, fmt.Sprintf("%s %q: %v", sched.key, sched.spec, err))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q (want debug, info, warn or error)", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q (want console or json)", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// KVOptions maps the store section onto kv.Open options.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:    c.Store.Backend,
		Dir:        c.Store.Dir,
		SQLitePath: c.Store.SQLitePath,
		RedisURL:   c.Store.RedisURL,
		QuotaBytes: c.Store.QuotaBytes,
	}
}

// Save writes cfg as YAML to path, creating its directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

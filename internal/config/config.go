// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adhocore/gronx"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	Schedule ScheduleConfig `toml:"schedule"`
	LLM      LLMConfig      `toml:"llm"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Jobs     JobsConfig     `toml:"jobs"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// ScheduleConfig holds the work window used to seed preferences on first run.
type ScheduleConfig struct {
	DayStart string `toml:"day_start"` // e.g., "09:00"
	DayEnd   string `toml:"day_end"`   // e.g., "18:00"
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider   string `toml:"provider"`    // "copilot", "ollama", "lmstudio", "deepseek", "none"
	Model      string `toml:"model"`       // e.g., "gpt-4o"
	BaseURL    string `toml:"base_url"`    // empty uses the provider default
	MaxRetries int    `toml:"max_retries"` // optimizer attempts after the first
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr      string  `toml:"addr"`
	RateLimit float64 `toml:"rate_limit"` // LLM requests per second
	RateBurst int     `toml:"rate_burst"`
}

// JobsConfig holds cron specs for the background jobs. An empty spec disables
// a job, except sleep which then follows the stored sleep reminder time.
type JobsConfig struct {
	Morning      string `toml:"morning"`
	Sleep        string `toml:"sleep"`
	Reminders    string `toml:"reminders"`
	AutoSchedule string `toml:"auto_schedule"`
	ReminderLead int    `toml:"reminder_lead"` // minutes
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "console" or "json"
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "auto", "dark", "light"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			DayStart: "09:00",
			DayEnd:   "18:00",
		},
		LLM: LLMConfig{
			Provider:   "copilot",
			Model:      "gpt-4o",
			MaxRetries: 2,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			RateLimit: 1,
			RateBurst: 3,
		},
		Jobs: JobsConfig{
			Morning:      "0 8 * * *",
			Sleep:        "0 22 * * *",
			Reminders:    "* * * * *",
			AutoSchedule: "",
			ReminderLead: 5,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "daybook.db"
	}
	return filepath.Join(home, ".local", "share", "daybook", "daybook.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "daybook", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies DAYBOOK_* environment variable overrides.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	strVars := map[string]*string{
		"DAYBOOK_DAY_START":          &cfg.Schedule.DayStart,
		"DAYBOOK_DAY_END":            &cfg.Schedule.DayEnd,
		"DAYBOOK_LLM_PROVIDER":       &cfg.LLM.Provider,
		"DAYBOOK_LLM_MODEL":          &cfg.LLM.Model,
		"DAYBOOK_LLM_BASE_URL":       &cfg.LLM.BaseURL,
		"DAYBOOK_DB_PATH":            &cfg.Storage.DBPath,
		"DAYBOOK_SERVER_ADDR":        &cfg.Server.Addr,
		"DAYBOOK_JOBS_MORNING":       &cfg.Jobs.Morning,
		"DAYBOOK_JOBS_SLEEP":         &cfg.Jobs.Sleep,
		"DAYBOOK_JOBS_REMINDERS":     &cfg.Jobs.Reminders,
		"DAYBOOK_JOBS_AUTO_SCHEDULE": &cfg.Jobs.AutoSchedule,
		"DAYBOOK_LOG_LEVEL":          &cfg.Log.Level,
		"DAYBOOK_LOG_FORMAT":         &cfg.Log.Format,
		"DAYBOOK_UI_THEME":           &cfg.UI.Theme,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"DAYBOOK_LLM_MAX_RETRIES":    &cfg.LLM.MaxRetries,
		"DAYBOOK_SERVER_RATE_BURST":  &cfg.Server.RateBurst,
		"DAYBOOK_JOBS_REMINDER_LEAD": &cfg.Jobs.ReminderLead,
	}
	for name, dst := range intVars {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("DAYBOOK_SERVER_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DAYBOOK_SERVER_RATE_LIMIT: %w", err)
		}
		cfg.Server.RateLimit = f
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"console", "json"}
	validThemes  = []string{"auto", "dark", "light"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateTime(c.Schedule.DayStart, "day_start"); err != nil {
		return err
	}
	if err := validateTime(c.Schedule.DayEnd, "day_end"); err != nil {
		return err
	}
	if c.Schedule.DayStart >= c.Schedule.DayEnd {
		return errors.New("day_start must be before day_end")
	}

	if c.LLM.MaxRetries < 0 {
		return errors.New("max_retries cannot be negative")
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}

	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return errors.New("rate_limit and rate_burst must be positive")
	}

	specs := []struct{ field, spec string }{
		{"jobs.morning", c.Jobs.Morning},
		{"jobs.sleep", c.Jobs.Sleep},
		{"jobs.reminders", c.Jobs.Reminders},
		{"jobs.auto_schedule", c.Jobs.AutoSchedule},
	}
	for _, s := range specs {
		if err := ValidateCron(s.spec); err != nil {
			return fmt.Errorf("%s: %w", s.field, err)
		}
	}
	if c.Jobs.ReminderLead < 0 {
		return errors.New("reminder_lead cannot be negative")
	}

	if !oneOf(c.Log.Level, validLevels) {
		return fmt.Errorf("log level must be one of %v, got %q", validLevels, c.Log.Level)
	}
	if !oneOf(c.Log.Format, validFormats) {
		return fmt.Errorf("log format must be one of %v, got %q", validFormats, c.Log.Format)
	}
	if !oneOf(c.UI.Theme, validThemes) {
		return fmt.Errorf("theme must be one of %v, got %q", validThemes, c.UI.Theme)
	}
	return nil
}

// ValidateCron checks a 5-field cron spec. An empty spec is valid and means disabled.
func ValidateCron(spec string) error {
	if spec == "" {
		return nil
	}
	if len(strings.Fields(spec)) != 5 {
		return fmt.Errorf("cron spec must have 5 fields, got %q", spec)
	}
	if !gronx.IsValid(spec) {
		return fmt.Errorf("invalid cron spec %q", spec)
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	hour := t[0:2]
	min := t[3:5]
	if !isDigits(hour) || !isDigits(min) || hour > "23" || min > "59" {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// HasLLM returns true unless the provider is explicitly disabled.
func (c *Config) HasLLM() bool {
	return !strings.EqualFold(strings.TrimSpace(c.LLM.Provider), "none")
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvConfigPath names the environment variable consulted when no --config flag is given.
const EnvConfigPath = "EVENTGEN_CONFIG"

// DefaultConfigPath is used when neither the flag nor the environment names a file.
const DefaultConfigPath = "configs/config.yaml"

// Config is the top-level application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Generate GenerateConfig `mapstructure:"generate"`
	Resorts  []ResortConfig `mapstructure:"resorts"`
	Database DatabaseConfig `mapstructure:"database"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	// Timezone decides which "current year" a run uses when generate.year is 0.
	Timezone string `mapstructure:"timezone"`
}

type GenerateConfig struct {
	Year         int      `mapstructure:"year"`
	Seed         int64    `mapstructure:"seed"`
	TargetSheets []string `mapstructure:"target_sheets"`
	// OffDutySheet is the only sheet that receives off-duty rows.
	OffDutySheet string `mapstructure:"off_duty_sheet"`
	// ProductSheet prefers its product column for qualification lookups.
	ProductSheet  string        `mapstructure:"product_sheet"`
	LabelOverride LabelOverride `mapstructure:"label_override"`
	ExcludeColor  string        `mapstructure:"exclude_color"`
	// ExcludeSuffixMatch also accepts colours sharing the last six hex digits.
	ExcludeSuffixMatch bool     `mapstructure:"exclude_suffix_match"`
	OffCodes           []string `mapstructure:"off_codes"`
	Palette            []string `mapstructure:"palette"`
	TeamMarker         string   `mapstructure:"team_marker"`
}

// LabelOverride forces resource and configuration labels for activities on Sheet
// whose name starts with Prefix.
type LabelOverride struct {
	Sheet  string `mapstructure:"sheet"`
	Prefix string `mapstructure:"prefix"`
	Label  string `mapstructure:"label"`
}

type ResortConfig struct {
	Code    string   `mapstructure:"code"`
	Aliases []string `mapstructure:"aliases"`
}

type DatabaseConfig struct {
	Path         string `mapstructure:"path"`
	InsertedUser string `mapstructure:"inserted_user"`
}

// ResolvePath picks the config file: explicit flag, then environment, then the default path.
func ResolvePath(flagPath string) string {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load reads the YAML file at path. A missing file is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var loaded Config
	if err := v.Unmarshal(&loaded, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	loaded.applyDefaults(cfg)
	if err := validate(&loaded); err != nil {
		return nil, err
	}
	return &loaded, nil
}

// OutputYear is the calendar year stamped on generated dates.
func (c *Config) OutputYear(now time.Time) int {
	if c.Generate.Year > 0 {
		return c.Generate.Year
	}
	return now.In(c.Location()).Year()
}

// Location falls back to local time when the timezone cannot be loaded.
func (c *Config) Location() *time.Location {
	name := strings.TrimSpace(c.App.Timezone)
	if name == "" {
		return time.Local
	}
	if loc, err := time.LoadLocation(name); err == nil && loc != nil {
		return loc
	}
	return time.Local
}

// IsTarget reports whether sheet is one of the configured target sheets (case-insensitive).
func (c *Config) IsTarget(sheet string) bool {
	for _, t := range c.Generate.TargetSheets {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(sheet)) {
			return true
		}
	}
	return false
}

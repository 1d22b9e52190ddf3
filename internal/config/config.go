package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig    `yaml:"api"`
	Hotkey   HotkeyConfig `yaml:"hotkey"`
	Audio    AudioConfig  `yaml:"audio"`
	Inject   InjectConfig `yaml:"inject"`
	Compat   CompatConfig `yaml:"compat"`
	LogLevel string       `yaml:"log_level"`
}

// APIConfig holds the cloud transcription endpoint settings.
type APIConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	Token          string  `yaml:"token"`
	Model          string  `yaml:"model"`
	Language       string  `yaml:"language"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
	RetryBaseDelay float64 `yaml:"retry_base_delay"` // seconds
	EnableHTTP2    bool    `yaml:"enable_http2"`
}

// Timeout returns the per-request upload timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Keys []string `yaml:"keys"`
	Mode string   `yaml:"mode"` // "hold" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
}

// InjectConfig holds text injection settings.
type InjectConfig struct {
	// Order overrides the strategy cascade for all targets when set.
	// Valid names: uiautomation, keystroke, clipboard.
	Order []string `yaml:"order"`
	// Disabled strategies are never attempted, regardless of profile.
	Disabled          []string `yaml:"disabled"`
	SettleDelayMS     int      `yaml:"settle_delay_ms"`
	AttemptTimeoutMS  int      `yaml:"attempt_timeout_ms"`
	PreserveOnFailure bool     `yaml:"preserve_on_failure"`
}

// SettleDelay returns the focus stabilization pause inserted before
// each strategy attempt.
func (i InjectConfig) SettleDelay() time.Duration {
	return time.Duration(i.SettleDelayMS) * time.Millisecond
}

// AttemptTimeout returns the base timeout for one strategy attempt.
func (i InjectConfig) AttemptTimeout() time.Duration {
	return time.Duration(i.AttemptTimeoutMS) * time.Millisecond
}

// CompatConfig holds the compatibility profile cache settings.
type CompatConfig struct {
	ProfilePath string `yaml:"profile_path"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scottwisper")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:       "",
			Model:          "whisper-1",
			Language:       "",
			TimeoutSeconds: 30,
			MaxRetries:     3,
			RetryBaseDelay: 0.5,
			EnableHTTP2:    true,
		},
		Hotkey: HotkeyConfig{
			Keys: []string{"ctrl", "shift", "d"},
			Mode: "hold",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Inject: InjectConfig{
			Order:             nil, // per-profile or conservative default
			Disabled:          nil,
			SettleDelayMS:     150,
			AttemptTimeoutMS:  2000,
			PreserveOnFailure: true,
		},
		Compat: CompatConfig{
			ProfilePath: filepath.Join(DefaultConfigDir(), "profiles.yaml"),
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Compat.ProfilePath = expandTilde(cfg.Compat.ProfilePath)

	return cfg, nil
}

// ValidStrategyNames are the injection strategies the cascade knows about.
var ValidStrategyNames = []string{"uiautomation", "keystroke", "clipboard"}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint must not be empty")
	}

	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}

	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0")
	}

	if len(c.Hotkey.Keys) == 0 {
		return fmt.Errorf("hotkey.keys must not be empty")
	}

	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	for _, name := range c.Inject.Order {
		if !validStrategy(name) {
			return fmt.Errorf("inject.order contains unknown strategy %q", name)
		}
	}

	for _, name := range c.Inject.Disabled {
		if !validStrategy(name) {
			return fmt.Errorf("inject.disabled contains unknown strategy %q", name)
		}
	}

	if len(c.Inject.Disabled) >= len(ValidStrategyNames) {
		return fmt.Errorf("inject.disabled must leave at least one strategy enabled")
	}

	if c.Inject.SettleDelayMS < 0 {
		return fmt.Errorf("inject.settle_delay_ms must be >= 0")
	}

	if c.Inject.AttemptTimeoutMS <= 0 {
		return fmt.Errorf("inject.attempt_timeout_ms must be > 0")
	}

	if c.Compat.ProfilePath == "" {
		return fmt.Errorf("compat.profile_path must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

func validStrategy(name string) bool {
	for _, v := range ValidStrategyNames {
		if name == v {
			return true
		}
	}
	return false
}

// WriteDefault writes a commented default config file to the default path
// if one does not already exist. It returns the path written (or found).
func WriteDefault() (string, error) {
	dir := DefaultConfigDir()
	if dir == "" {
		return "", fmt.Errorf("cannot determine home directory")
	}
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	header := "# scottwisper configuration\n# Set api.endpoint and api.token before first use.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}

	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Package config loads computex configuration from YAML or JSON5 files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	safeexec "github.com/haasonsaas/computex/internal/exec"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag is given.
const EnvConfigPath = "COMPUTEX_CONFIG"

// Config is the main configuration structure for computex.
type Config struct {
	Version       int                 `yaml:"version"`
	ComputerUse   ComputerUseConfig   `yaml:"computer_use"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ComputerUseConfig controls the GUI action translator.
type ComputerUseConfig struct {
	// Enabled turns the GUI tools on. The --gui and --headless flags override it.
	Enabled *bool `yaml:"enabled"`

	Tools      ToolPathsConfig  `yaml:"tools"`
	DisplayEnv string           `yaml:"display_env"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`

	// ProcessTimeout bounds each helper invocation. Zero disables the bound.
	ProcessTimeout *time.Duration `yaml:"process_timeout"`

	// ExtraDestructiveCombos extends the built-in table of combos that
	// require confirmation. Built-in entries cannot be removed.
	ExtraDestructiveCombos [][]string `yaml:"extra_destructive_combos"`
}

// ToolPathsConfig names the helper executables, either bare or as paths.
type ToolPathsConfig struct {
	Xdotool string `yaml:"xdotool"`
	Import  string `yaml:"import"`
}

// ScreenshotConfig controls where captures are written.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`

	// MaxAge prunes captures older than this while serving. Zero keeps them.
	MaxAge          time.Duration `yaml:"max_age"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig configures tracing and metrics export.
type ObservabilityConfig struct {
	Tracing     TracingConfig `yaml:"tracing"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Endpoint       string            `yaml:"endpoint"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
	SamplingRate   float64           `yaml:"sampling_rate"`
	Insecure       bool              `yaml:"insecure"`
	Attributes     map[string]string `yaml:"attributes"`
}

const (
	DefaultDisplayEnv       = "DISPLAY"
	DefaultScreenshotPrefix = "computex-screenshot-"
	DefaultProcessTimeout   = 30 * time.Second
	DefaultCleanupInterval  = 10 * time.Minute
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file, resolving includes and
// environment references, then applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	if cfg.Version != 0 {
		if err := ValidateVersion(cfg.Version); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve picks the configuration file to load. An explicit path wins, then
// COMPUTEX_CONFIG, then ~/.computex/config.yaml if it exists. An empty
// result means built-in defaults apply.
func Resolve(explicit string) string {
	if path := strings.TrimSpace(explicit); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".computex", "config.yaml")
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}

// LoadResolved loads the file chosen by Resolve, or returns Default.
func LoadResolved(explicit string) (*Config, string, error) {
	path := Resolve(explicit)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// GUIEnabled reports whether GUI tools are on.
func (c ComputerUseConfig) GUIEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Timeout returns the per-process bound.
func (c ComputerUseConfig) Timeout() time.Duration {
	if c.ProcessTimeout == nil {
		return DefaultProcessTimeout
	}
	return *c.ProcessTimeout
}

// ToolOverrides maps helper names to configured executables.
func (c ComputerUseConfig) ToolOverrides() map[string]string {
	return map[string]string{
		"xdotool": c.Tools.Xdotool,
		"import":  c.Tools.Import,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	cu := &cfg.ComputerUse
	if cu.Enabled == nil {
		enabled := true
		cu.Enabled = &enabled
	}
	if cu.Tools.Xdotool == "" {
		cu.Tools.Xdotool = "xdotool"
	}
	if cu.Tools.Import == "" {
		cu.Tools.Import = "import"
	}
	if cu.DisplayEnv == "" {
		cu.DisplayEnv = DefaultDisplayEnv
	}
	if cu.Screenshot.Dir == "" {
		cu.Screenshot.Dir = os.TempDir()
	}
	if cu.Screenshot.Prefix == "" {
		cu.Screenshot.Prefix = DefaultScreenshotPrefix
	}
	if cu.Screenshot.CleanupInterval == 0 {
		cu.Screenshot.CleanupInterval = DefaultCleanupInterval
	}
	if cu.ProcessTimeout == nil {
		timeout := DefaultProcessTimeout
		cu.ProcessTimeout = &timeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Observability.Tracing.ServiceName == "" {
		cfg.Observability.Tracing.ServiceName = "computex"
	}
	if cfg.Observability.Tracing.SamplingRate == 0 {
		cfg.Observability.Tracing.SamplingRate = 1.0
	}
}

func validate(cfg *Config) error {
	var issues []string

	cu := cfg.ComputerUse
	overrides := cu.ToolOverrides()
	for _, name := range []string{"xdotool", "import"} {
		if _, err := safeexec.SanitizeExecutableValue(overrides[name]); err != nil {
			issues = append(issues, fmt.Sprintf("computer_use.tools.%s: %v", name, err))
		}
	}
	if strings.ContainsAny(cu.DisplayEnv, "= \t") {
		issues = append(issues, "computer_use.display_env must be a variable name")
	}
	if strings.ContainsRune(cu.Screenshot.Prefix, os.PathSeparator) {
		issues = append(issues, "computer_use.screenshot.prefix must not contain a path separator")
	}
	if cu.Screenshot.MaxAge < 0 || cu.Screenshot.CleanupInterval < 0 {
		issues = append(issues, "computer_use.screenshot durations must not be negative")
	}
	if cu.ProcessTimeout != nil && *cu.ProcessTimeout < 0 {
		issues = append(issues, "computer_use.process_timeout must not be negative")
	}
	for i, combo := range cu.ExtraDestructiveCombos {
		if len(combo) == 0 {
			issues = append(issues, fmt.Sprintf("computer_use.extra_destructive_combos[%d] must list at least one key", i))
		}
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level))
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		issues = append(issues, fmt.Sprintf("logging.format %q must be json or text", cfg.Logging.Format))
	}
	if rate := cfg.Observability.Tracing.SamplingRate; rate < 0 || rate > 1 {
		issues = append(issues, "observability.tracing.sampling_rate must be between 0 and 1")
	}

	if len(issues) == 0 {
		return nil
	}
	return errors.New("config invalid: " + strings.Join(issues, "; "))
}

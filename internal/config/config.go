package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCommandTimeout     = 5 * time.Minute
	DefaultRebootRefreshDelay = 2 * time.Second
	DefaultLogLevel           = "info"

	envPrefix = "ADBDECK_"
	dirName   = "adbdeck"
)

// Duration is a time.Duration that reads and writes as "5m", "2s", ...
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(b))
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all adbdeck configuration.
type Config struct {
	ADBPath      string `json:"adb_path,omitempty"`
	FastbootPath string `json:"fastboot_path,omitempty"`
	ScrcpyPath   string `json:"scrcpy_path,omitempty"`

	CommandTimeout     Duration `json:"command_timeout,omitempty"`
	ProbeTimeout       Duration `json:"probe_timeout,omitempty"`
	RebootRefreshDelay Duration `json:"reboot_refresh_delay,omitempty"`

	ConfirmPhrase string `json:"confirm_phrase,omitempty"`
	ScreenshotDir string `json:"screenshot_dir,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	LastDevice    string `json:"last_device,omitempty"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		CommandTimeout:     Duration(DefaultCommandTimeout),
		RebootRefreshDelay: Duration(DefaultRebootRefreshDelay),
		LogLevel:           DefaultLogLevel,
	}
}

// ToolPaths returns the explicit binary paths keyed by tool name.
func (c Config) ToolPaths() map[string]string {
	paths := map[string]string{}
	if c.ADBPath != "" {
		paths["adb"] = c.ADBPath
	}
	if c.FastbootPath != "" {
		paths["fastboot"] = c.FastbootPath
	}
	if c.ScrcpyPath != "" {
		paths["scrcpy"] = c.ScrcpyPath
	}
	return paths
}

// Load reads and merges global and local configs, then applies
// ADBDECK_* environment overrides.
// Order: defaults → global (~/.config/adbdeck/config.json) → local
// (<dir>/.adbdeck/config.json) → <dir>/.env → environment.
func Load(dir string) Config {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		mergeFromFile(&cfg, filepath.Join(home, ".config", dirName, "config.json"))
	}

	if dir != "" {
		mergeFromFile(&cfg, filepath.Join(dir, "."+dirName, "config.json"))
		loadDotEnv(filepath.Join(dir, ".env"))
	}

	applyEnv(&cfg, os.LookupEnv)
	return cfg
}

// Save writes the config to <dir>/.adbdeck/config.json by default, or to
// the global config if global is true.
func Save(cfg Config, dir string, global bool) error {
	var target string
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "resolve home directory")
		}
		target = filepath.Join(home, ".config", dirName)
	} else {
		target = filepath.Join(dir, "."+dirName)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	return errors.Wrap(os.WriteFile(filepath.Join(target, "config.json"), data, 0o644), "write config")
}

// StateDir returns where history and logs live:
// $XDG_STATE_HOME/adbdeck, or ~/.local/state/adbdeck.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, dirName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", dirName)
	}
	return filepath.Join(os.TempDir(), dirName)
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	// godotenv.Load never overrides variables already set in the process.
	if err := godotenv.Load(path); err != nil {
		log.Warn().Err(err).Str("dotenv", path).Msg("load .env failed")
		return
	}
	log.Debug().Str("dotenv", path).Msg("loaded .env")
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *Duration) {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			log.Warn().Err(err).Str("env", envPrefix+key).Msg("ignoring override")
		}
	}

	str("ADB_PATH", &cfg.ADBPath)
	str("FASTBOOT_PATH", &cfg.FastbootPath)
	str("SCRCPY_PATH", &cfg.ScrcpyPath)
	dur("COMMAND_TIMEOUT", &cfg.CommandTimeout)
	dur("PROBE_TIMEOUT", &cfg.ProbeTimeout)
	dur("REBOOT_REFRESH_DELAY", &cfg.RebootRefreshDelay)
	str("CONFIRM_PHRASE", &cfg.ConfirmPhrase)
	str("SCREENSHOT_DIR", &cfg.ScreenshotDir)
	str("LOG_LEVEL", &cfg.LogLevel)
	if cfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	}
}

func mergeFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config")
		return
	}

	if fileCfg.ADBPath != "" {
		cfg.ADBPath = fileCfg.ADBPath
	}
	if fileCfg.FastbootPath != "" {
		cfg.FastbootPath = fileCfg.FastbootPath
	}
	if fileCfg.ScrcpyPath != "" {
		cfg.ScrcpyPath = fileCfg.ScrcpyPath
	}
	if fileCfg.CommandTimeout != 0 {
		cfg.CommandTimeout = fileCfg.CommandTimeout
	}
	if fileCfg.ProbeTimeout != 0 {
		cfg.ProbeTimeout = fileCfg.ProbeTimeout
	}
	if fileCfg.RebootRefreshDelay != 0 {
		cfg.RebootRefreshDelay = fileCfg.RebootRefreshDelay
	}
	if fileCfg.ConfirmPhrase != "" {
		cfg.ConfirmPhrase = fileCfg.ConfirmPhrase
	}
	if fileCfg.ScreenshotDir != "" {
		cfg.ScreenshotDir = fileCfg.ScreenshotDir
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LastDevice != "" {
		cfg.LastDevice = fileCfg.LastDevice
	}
}

// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Library        []string `toml:"library"`
	CacheDir       string   `toml:"cache_dir"`
	Player         string   `toml:"player"`
	PlayerArgs     []string `toml:"player_args"`
	SubsLanguage   string   `toml:"subs_language"`
	PollIntervalMS int      `toml:"poll_interval_ms"`
	MaxDepth       int      `toml:"max_depth"`
	Debug          bool     `toml:"debug"`
	Picker         Picker   `toml:"picker"`
	Log            Log      `toml:"log"`
}

// BuiltinPicker selects the terminal picker instead of an external program.
const BuiltinPicker = "builtin"

// Picker configures the external selector program.
type Picker struct {
	Command         string   `toml:"command"` // dmenu, fzf, rofi, or "builtin"
	Args            []string `toml:"args"`
	PromptFlag      string   `toml:"prompt_flag"`
	Lines           int      `toml:"lines"`
	Bottom          bool     `toml:"bottom"`
	CaseInsensitive bool     `toml:"case_insensitive"`
	Font            string   `toml:"font"`
	NormFg          string   `toml:"norm_fg"`
	NormBg          string   `toml:"norm_bg"`
	SelFg           string   `toml:"sel_fg"`
	SelBg           string   `toml:"sel_bg"`
}

// Log configures logging output.
type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Library:        []string{"~/Videos"},
		Player:         "mpv",
		SubsLanguage:   "english",
		PollIntervalMS: 1000,
		MaxDepth:       4,
		Picker: Picker{
			Command:    "dmenu",
			PromptFlag: "-p",
			Lines:      15,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sani"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sani"), nil
}

// ConfigPath returns the path to the config file. SANI_CONFIG wins over
// the XDG location.
func ConfigPath() (string, error) {
	if p := os.Getenv("SANI_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, iina, celluloid)", c.Player)
	}

	if len(c.Library) == 0 {
		return fmt.Errorf("library must list at least one directory")
	}
	for _, dir := range c.Library {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("library entries cannot be empty")
		}
	}

	if c.PollIntervalMS < 100 || c.PollIntervalMS > 10000 {
		return fmt.Errorf("poll_interval_ms %d out of range (100-10000)", c.PollIntervalMS)
	}

	// Files live directly in the series directory or one season folder below.
	if c.MaxDepth < 2 || c.MaxDepth > 8 {
		return fmt.Errorf("max_depth %d out of range (2-8)", c.MaxDepth)
	}

	if c.Picker.Command == "" {
		return fmt.Errorf("picker command cannot be empty")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("unsupported log level %q (valid: debug, info, warn, error)", c.Log.Level)
	}

	return nil
}

// PollInterval returns the player position polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// LibraryDirs returns the library roots with ~ expanded and made absolute.
// Entries that cannot be resolved are dropped.
func (c *Config) LibraryDirs() []string {
	dirs := make([]string, 0, len(c.Library))
	for _, dir := range c.Library {
		abs, err := ExpandPath(dir)
		if err != nil {
			continue
		}
		dirs = append(dirs, abs)
	}
	return dirs
}

// ResolveCacheDir returns the directory holding the catalog database.
// Precedence: cache_dir, SANI_CACHE, XDG_CACHE_HOME/sani, ~/.cache/sani.
func (c *Config) ResolveCacheDir() (string, error) {
	if c.CacheDir != "" {
		return ExpandPath(c.CacheDir)
	}
	if dir := os.Getenv("SANI_CACHE"); dir != "" {
		return ExpandPath(dir)
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "sani"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "sani"), nil
}

// DatabasePath returns the catalog database file path.
func (c *Config) DatabasePath() (string, error) {
	dir, err := c.ResolveCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sani.db"), nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return filepath.Abs(p)
}

// PickerArgs builds the selector argument list. The dmenu style options are
// only emitted for dmenu; other pickers get Args plus the prompt flag.
func (p Picker) PickerArgs(prompt string) []string {
	args := make([]string, 0, 16)
	if p.PromptFlag != "" && prompt != "" {
		args = append(args, p.PromptFlag, prompt)
	}

	if filepath.Base(p.Command) == "dmenu" {
		if p.Lines > 0 {
			args = append(args, "-l", strconv.Itoa(p.Lines))
		}
		if p.Bottom {
			args = append(args, "-b")
		}
		if p.CaseInsensitive {
			args = append(args, "-i")
		}
		for _, opt := range []struct{ flag, value string }{
			{"-fn", p.Font},
			{"-nf", p.NormFg},
			{"-nb", p.NormBg},
			{"-sf", p.SelFg},
			{"-sb", p.SelBg},
		} {
			if strings.TrimSpace(opt.value) != "" {
				args = append(args, opt.flag, opt.value)
			}
		}
	}

	return append(args, p.Args...)
}

package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Player != "mpv" {
		t.Errorf("default player = %q, want mpv", cfg.Player)
	}
	if cfg.Picker.Command != "dmenu" {
		t.Errorf("default picker = %q, want dmenu", cfg.Picker.Command)
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("default poll interval = %v, want 1s", cfg.PollInterval())
	}
	if len(cfg.Library) != 1 || cfg.Library[0] != "~/Videos" {
		t.Errorf("default library = %v, want [~/Videos]", cfg.Library)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"valid iina", func(c *Config) { c.Player = "iina" }, false},
		{"empty library", func(c *Config) { c.Library = nil }, true},
		{"blank library entry", func(c *Config) { c.Library = []string{" "} }, true},
		{"poll too fast", func(c *Config) { c.PollIntervalMS = 10 }, true},
		{"poll too slow", func(c *Config) { c.PollIntervalMS = 60000 }, true},
		{"depth too shallow", func(c *Config) { c.MaxDepth = 1 }, true},
		{"empty picker", func(c *Config) { c.Picker.Command = "" }, true},
		{"builtin picker", func(c *Config) { c.Picker.Command = "builtin" }, false},
		{"invalid log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"debug log level", func(c *Config) { c.Log.Level = "DEBUG" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("SANI_CONFIG", "")

	saniDir := filepath.Join(tmpDir, "sani")
	if err := os.MkdirAll(saniDir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
library = ["/srv/anime", "/srv/tv"]
player = "celluloid"
poll_interval_ms = 500

[picker]
command = "fzf"
prompt_flag = "--prompt"

[log]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(saniDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !slices.Equal(cfg.Library, []string{"/srv/anime", "/srv/tv"}) {
		t.Errorf("library = %v", cfg.Library)
	}
	if cfg.Player != "celluloid" {
		t.Errorf("player = %q, want celluloid", cfg.Player)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("poll interval = %v, want 500ms", cfg.PollInterval())
	}
	if cfg.Picker.Command != "fzf" || cfg.Picker.PromptFlag != "--prompt" {
		t.Errorf("picker = %+v", cfg.Picker)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Picker.Lines != 15 {
		t.Errorf("picker lines = %d, want default 15", cfg.Picker.Lines)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxBackups != 3 {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte(`player = "iina"`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SANI_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Player != "iina" {
		t.Errorf("player = %q, want iina", cfg.Player)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte(`poll_interval_ms = 1`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SANI_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject out-of-range values")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("SANI_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Player != "mpv" {
		t.Errorf("missing file should return defaults, got player = %q", cfg.Player)
	}
}

func TestResolveCacheDir(t *testing.T) {
	t.Setenv("SANI_CACHE", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	cfg := Default()
	dir, err := cfg.ResolveCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg-cache/sani" {
		t.Errorf("cache dir = %q, want /tmp/xdg-cache/sani", dir)
	}

	t.Setenv("SANI_CACHE", "/tmp/sani-cache")
	if dir, _ = cfg.ResolveCacheDir(); dir != "/tmp/sani-cache" {
		t.Errorf("SANI_CACHE not honored: %q", dir)
	}

	cfg.CacheDir = "/var/cache/sani"
	db, err := cfg.DatabasePath()
	if err != nil {
		t.Fatal(err)
	}
	if db != "/var/cache/sani/sani.db" {
		t.Errorf("database path = %q", db)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/Videos")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "Videos") {
		t.Errorf("ExpandPath(~/Videos) = %q", got)
	}

	if got, _ := ExpandPath("/tmp/test-library"); got != "/tmp/test-library" {
		t.Errorf("absolute path changed: %q", got)
	}
}

func TestPickerArgs(t *testing.T) {
	p := Picker{
		Command:         "dmenu",
		PromptFlag:      "-p",
		Lines:           20,
		Bottom:          true,
		CaseInsensitive: true,
		Font:            "monospace:size=10",
		SelBg:           "#005577",
		NormFg:          " ",
	}
	want := []string{"-p", "Select anime", "-l", "20", "-b", "-i", "-fn", "monospace:size=10", "-sb", "#005577"}
	if got := p.PickerArgs("Select anime"); !slices.Equal(got, want) {
		t.Errorf("dmenu args = %v, want %v", got, want)
	}

	fzf := Picker{Command: "fzf", PromptFlag: "--prompt", Lines: 20, Bottom: true, Args: []string{"--reverse"}}
	want = []string{"--prompt", "Episode", "--reverse"}
	if got := fzf.PickerArgs("Episode"); !slices.Equal(got, want) {
		t.Errorf("fzf args = %v, want %v", got, want)
	}
}

// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sani/internal/config"
	"sani/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagLibrary []string
	flagPlayer  string
	flagPicker  string
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var (
	logger    = logging.Discard()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "sani [series]",
	Short: "Track and resume local series with mpv",
	Long: `Sani keeps a catalog of the series in your video library, remembers
the episode you watched last and where you stopped, and plays the next one.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              playRun,
	SilenceUsage:      true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&flagLibrary, "library", "L", nil, "Library directory (repeatable, replaces config)")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | iina | celluloid")
	rootCmd.PersistentFlags().StringVar(&flagPicker, "picker", "", "Picker program: dmenu | fzf | rofi | builtin")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if len(flagLibrary) > 0 {
		cfg.Library = flagLibrary
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagPicker != "" {
		cfg.Picker.Command = flagPicker
	}
	if flagDebug {
		cfg.Debug = true
	}
	cfg.Player = strings.ToLower(cfg.Player)

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, closer, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	logger, logCloser = l, closer
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"library", cfg.LibraryDirs(),
		"player", cfg.Player,
		"picker", cfg.Picker.Command)
	return nil
}

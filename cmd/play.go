package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sani/internal/player"
	"sani/internal/session"
	"sani/internal/subtitle"
	"sani/internal/ui"
)

// playRun is the default command: sani [series]
func playRun(cmd *cobra.Command, args []string) error {
	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("%s not found in PATH", p.Name())
	}
	if len(cfg.LibraryDirs()) == 0 {
		return errors.New("no library directory configured (set library in config.toml or pass --library)")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	osFs := afero.NewOsFs()
	tracker := player.NewTracker(p, a.store,
		player.WithPollInterval(cfg.PollInterval()),
		player.WithPlayerArgs(cfg.PlayerArgs),
		player.WithSubtitles(func(path string) string {
			return subtitle.Find(osFs, path, cfg.SubsLanguage)
		}),
		player.WithLogger(logger),
		player.WithStdio(os.Stdin, os.Stdout, os.Stderr))

	s := session.New(a.store, ui.New(cfg.Picker), tracker, logger)
	err = s.Run(cmd.Context(), strings.Join(args, " "))
	if err != nil && cmd.Context().Err() != nil {
		// Interrupted
		return nil
	}
	return err
}

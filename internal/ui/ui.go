// Package ui provides the picker abstraction used by the interactive flow.
// External pickers (dmenu, fzf, rofi) receive items as plain text on stdin;
// no shell-interpreted strings are ever built.
package ui

//go:generate mockgen -destination=mocks/mock_picker.go -package=mocks sani/internal/ui Picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"sani/internal/config"
)

var (
	// ErrCancelled is returned when the user dismisses the picker.
	ErrCancelled = errors.New("selection cancelled")

	// ErrNoItems is returned when there is nothing to pick from.
	ErrNoItems = errors.New("no items to select from")
)

// Picker presents items and returns the chosen line.
type Picker interface {
	Pick(ctx context.Context, prompt string, items []string) (string, error)
}

// External runs a picker program that reads newline-separated items on
// stdin and prints the chosen line on stdout.
type External struct {
	Command string
	Args    func(prompt string) []string
	Stderr  io.Writer
}

// Pick runs the picker program. Empty output means the user cancelled,
// whatever the exit status.
func (e *External) Pick(ctx context.Context, prompt string, items []string) (string, error) {
	if len(items) == 0 {
		return "", ErrNoItems
	}

	var args []string
	if e.Args != nil {
		args = e.Args(prompt)
	}
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Stdin = strings.NewReader(strings.Join(items, "\n") + "\n")
	cmd.Stderr = e.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	runErr := cmd.Run()
	selected := strings.TrimSpace(stdout.String())
	if selected == "" {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if runErr == nil || errors.As(runErr, &exitErr) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("%s failed: %w", e.Command, runErr)
	}
	// Multi-line output (e.g. fzf --print-query) keeps the last line.
	if i := strings.LastIndexByte(selected, '\n'); i >= 0 {
		selected = strings.TrimSpace(selected[i+1:])
	}
	return selected, nil
}

// New returns the picker described by cfg. The built-in picker is used when
// the command is "builtin", or when the configured program is missing and
// sani runs in a terminal.
func New(cfg config.Picker) Picker {
	if cfg.Command == config.BuiltinPicker {
		return &Builtin{}
	}
	if _, err := exec.LookPath(cfg.Command); err != nil && isTerminal() {
		return &Builtin{}
	}
	return &External{Command: cfg.Command, Args: cfg.PickerArgs}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

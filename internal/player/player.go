// Package player launches media players for local episodes and tracks the
// playback position of players that expose an IPC socket.
// All player invocations use exec.Command with explicit argument slices.
package player

import (
	"context"
	"errors"
	"os/exec"
)

// Request describes one playback.
type Request struct {
	Path      string   // Local media file
	Title     string   // Window/media title
	Start     int64    // Resume offset in seconds, 0 plays from the start
	Socket    string   // IPC endpoint, empty when position tracking is off
	SubFile   string   // Optional sidecar subtitle
	ExtraArgs []string // Appended verbatim from config
}

// Player is the interface for media player implementations.
type Player interface {
	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool

	// Command builds the player process for req. The process is killed when
	// ctx is cancelled.
	Command(ctx context.Context, req Request) *exec.Cmd

	// SupportsIPC reports whether the player answers playback-time queries
	// on Request.Socket.
	SupportsIPC() bool
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{}
	}
}

// Succeeded reports whether a player exit status counts as a normal end of
// playback. mpv exits with 4 when quit by a signal or from the keyboard.
func Succeeded(err error) bool {
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 4
	}
	return false
}

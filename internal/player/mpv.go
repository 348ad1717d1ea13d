package player

import (
	"context"
	"fmt"
	"os/exec"
)

// MPV implements the Player interface for mpv.
type MPV struct {
	// Binary overrides the executable, defaults to "mpv".
	Binary string
}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) binary() string {
	if m.Binary != "" {
		return m.Binary
	}
	return "mpv"
}

func (m *MPV) Available() bool {
	_, err := exec.LookPath(m.binary())
	return err == nil
}

func (m *MPV) SupportsIPC() bool { return true }

// Command launches mpv on a local file with the resume offset and, when
// tracking, an IPC server on req.Socket.
func (m *MPV) Command(ctx context.Context, req Request) *exec.Cmd {
	return exec.CommandContext(ctx, m.binary(), mpvArgs(req)...)
}

// mpvArgs builds the mpv-compatible argument list shared with Generic.
func mpvArgs(req Request) []string {
	args := []string{req.Path}

	if req.Title != "" {
		args = append(args, "--force-media-title="+req.Title)
	}
	if req.Start > 0 {
		args = append(args, fmt.Sprintf("--start=%d", req.Start))
	}
	if req.Socket != "" {
		args = append(args, "--input-ipc-server="+req.Socket)
	}
	if req.SubFile != "" {
		args = append(args, "--sub-file="+req.SubFile)
	}

	return append(args, req.ExtraArgs...)
}

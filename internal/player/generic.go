package player

import (
	"context"
	"os/exec"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments. Position tracking is not supported.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool {
	_, err := exec.LookPath(g.name)
	return err == nil
}

func (g *Generic) SupportsIPC() bool { return false }

// Command launches the generic player. The IPC socket is never passed.
func (g *Generic) Command(ctx context.Context, req Request) *exec.Cmd {
	req.Socket = ""
	return exec.CommandContext(ctx, g.name, mpvArgs(req)...)
}

package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sani/internal/media"
)

// DefaultPollInterval is how often the watcher asks the player for its
// position.
const DefaultPollInterval = time.Second

// Prober reads the playback position from a running player.
type Prober interface {
	PlaybackTime(ctx context.Context, socket string) (float64, error)
}

// ResumeStore persists resume offsets.
type ResumeStore interface {
	ResumeTimestamp(ctx context.Context, path string) int64
	SaveResume(ctx context.Context, ep media.Episode, seconds int64) error
}

// Result is the outcome of one playback.
type Result struct {
	Position int64 // Last known position in seconds
	Success  bool  // Player exited normally
}

// Tracker plays one episode at a time. While the player runs, a watcher
// polls its IPC socket; after the player exits the last known position is
// written to the store before Watch returns.
type Tracker struct {
	player    Player
	prober    Prober
	store     ResumeStore
	interval  time.Duration
	socketDir string
	extraArgs []string
	subtitles func(path string) string
	logger    *slog.Logger

	stdin          io.Reader
	stdout, stderr io.Writer
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithProber replaces the mpv IPC client.
func WithProber(p Prober) TrackerOption {
	return func(t *Tracker) { t.prober = p }
}

// WithPollInterval sets the watcher tick.
func WithPollInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithSocketDir sets where IPC sockets are created.
func WithSocketDir(dir string) TrackerOption {
	return func(t *Tracker) { t.socketDir = dir }
}

// WithPlayerArgs appends extra arguments to every player invocation.
func WithPlayerArgs(args []string) TrackerOption {
	return func(t *Tracker) { t.extraArgs = args }
}

// WithSubtitles sets the sidecar subtitle lookup. It returns "" when the
// episode has no matching subtitle.
func WithSubtitles(find func(path string) string) TrackerOption {
	return func(t *Tracker) { t.subtitles = find }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// WithStdio overrides the player's standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) TrackerOption {
	return func(t *Tracker) {
		t.stdin, t.stdout, t.stderr = stdin, stdout, stderr
	}
}

// NewTracker creates a tracker for p storing resume offsets in store.
func NewTracker(p Player, store ResumeStore, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		player:    p,
		prober:    &IPCClient{},
		store:     store,
		interval:  DefaultPollInterval,
		socketDir: defaultSocketDir(),
		logger:    slog.Default(),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "tracker", "player", p.Name())
	return t
}

func defaultSocketDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// Watch plays ep from its stored resume offset and blocks until the player
// exits and the final position has been written. Cancelling ctx kills the
// player; the final write still happens.
func (t *Tracker) Watch(ctx context.Context, ep media.Episode) (Result, error) {
	start := ep.Resume
	if start <= 0 {
		start = t.store.ResumeTimestamp(ctx, ep.Path)
	}

	req := Request{
		Path:      ep.Path,
		Title:     filepath.Base(ep.Path),
		Start:     start,
		ExtraArgs: t.extraArgs,
	}
	if t.player.SupportsIPC() {
		req.Socket = filepath.Join(t.socketDir, "sani-mpv-"+uuid.NewString()+".sock")
		defer os.Remove(req.Socket)
	}
	if t.subtitles != nil {
		req.SubFile = t.subtitles(ep.Path)
	}

	cmd := t.player.Command(ctx, req)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = t.stdin, t.stdout, t.stderr

	t.logger.Debug("starting player", "path", ep.Path, "start", start, "socket", req.Socket)
	if err := cmd.Start(); err != nil {
		return Result{Position: start}, fmt.Errorf("starting %s: %w", t.player.Name(), err)
	}

	var (
		position atomic.Int64
		waitErr  error
		g        errgroup.Group
	)
	position.Store(start)
	stop := make(chan struct{})

	g.Go(func() error {
		defer close(stop)
		waitErr = cmd.Wait()
		return nil
	})

	if req.Socket != "" {
		g.Go(func() error {
			t.watch(ctx, req.Socket, &position, stop)
			final := position.Load()
			if err := t.store.SaveResume(context.WithoutCancel(ctx), ep, final); err != nil {
				t.logger.Warn("save resume position failed", "path", ep.Path, "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()

	res := Result{Position: position.Load(), Success: Succeeded(waitErr)}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, fmt.Errorf("waiting for %s: %w", t.player.Name(), waitErr)
		}
		t.logger.Debug("player exited", "code", exitErr.ExitCode())
	}
	return res, nil
}

// watch polls the player until stop is closed. Connection failures are
// expected while the player starts up and are retried on the next tick.
func (t *Tracker) watch(ctx context.Context, socket string, position *atomic.Int64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			seconds, err := t.prober.PlaybackTime(ctx, socket)
			if err != nil {
				continue
			}
			if seconds >= 0 && !math.IsNaN(seconds) && !math.IsInf(seconds, 0) {
				position.Store(int64(seconds))
			}
		}
	}
}

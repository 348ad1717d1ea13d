package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// DefaultIPCTimeout bounds a single playback-time query.
const DefaultIPCTimeout = 500 * time.Millisecond

// ErrPropertyUnavailable is returned while mpv has no playback position yet,
// e.g. before the file is loaded.
var ErrPropertyUnavailable = errors.New("property unavailable")

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type ipcResponse struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID *int64          `json:"request_id"`
	Event     string          `json:"event"`
}

// IPCClient queries mpv's JSON IPC server. A connection is opened per query
// so a restarted or not-yet-listening player never leaves a stale socket.
type IPCClient struct {
	Timeout time.Duration

	nextID atomic.Int64
}

// PlaybackTime returns the current playback position in seconds.
func (c *IPCClient) PlaybackTime(ctx context.Context, socket string) (float64, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultIPCTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return 0, fmt.Errorf("dial mpv ipc: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	id := c.nextID.Add(1)
	req, err := json.Marshal(ipcRequest{
		Command:   []any{"get_property", "playback-time"},
		RequestID: id,
	})
	if err != nil {
		return 0, fmt.Errorf("encode ipc request: %w", err)
	}
	if _, err := conn.Write(append(req, '\n')); err != nil {
		return 0, fmt.Errorf("write ipc request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		// Events are interleaved with replies on the same socket.
		if resp.Event != "" || resp.RequestID == nil || *resp.RequestID != id {
			continue
		}
		if resp.Error != "success" {
			if resp.Error == ErrPropertyUnavailable.Error() {
				return 0, ErrPropertyUnavailable
			}
			return 0, fmt.Errorf("mpv ipc: %s", resp.Error)
		}
		var seconds float64
		if err := json.Unmarshal(resp.Data, &seconds); err != nil {
			return 0, fmt.Errorf("decode playback-time: %w", err)
		}
		return seconds, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read ipc response: %w", err)
	}
	return 0, errors.New("mpv ipc: connection closed before reply")
}

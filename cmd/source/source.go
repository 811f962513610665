// Package source queries the external media player for its playback state.
//
// A query yields either a record "<playing|paused>|<artist>|<track>|<positionSeconds>|<durationMillis>"
// or one of the sentinels ResultNotRunning, ResultError and ResultTimeout.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/gigurra/nowplaying/cmd/config"
)

const (
	ResultNotRunning = "not_running"
	ResultError      = "error"
	ResultTimeout    = "timeout"
)

// Source asks the player for its current state.
type Source interface {
	Name() string
	// QueryState blocks until the player answers or the source's timeout expires.
	QueryState(ctx context.Context) string
}

// IsUnavailable reports whether raw is one of the sentinels meaning nothing can be shown.
func IsUnavailable(raw string) bool {
	switch raw {
	case ResultNotRunning, ResultError, ResultTimeout:
		return true
	}
	return false
}

// QueryWithTimeout runs query and waits at most timeout for it. Whichever of the result or
// the timeout comes first wins; on timeout the query's context is cancelled and its late
// result is dropped. A query error yields ResultError.
func QueryWithTimeout(ctx context.Context, timeout time.Duration, query func(ctx context.Context) (string, error)) string {
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a late result never blocks the query goroutine.
	done := make(chan string, 1)
	go func() {
		out, err := query(queryCtx)
		if err != nil {
			slog.Warn("player query failed", "error", err)
			out = ResultError
		}
		done <- out
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out
	case <-timer.C:
		slog.Warn("player query timed out", "timeout", timeout)
		return ResultTimeout
	case <-ctx.Done():
		return ResultError
	}
}

// New builds the source selected in cfg. "auto" picks AppleScript on macOS and MPRIS elsewhere.
func New(cfg *config.Config) (Source, error) {
	kind := cfg.Source
	if kind == config.SourceAuto {
		kind = config.SourceMPRIS
		if runtime.GOOS == "darwin" {
			kind = config.SourceAppleScript
		}
	}

	switch kind {
	case config.SourceAppleScript:
		return NewAppleScript(cfg.QueryTimeout()), nil
	case config.SourceMPRIS:
		return NewMPRIS(cfg.MPRISPlayer, cfg.QueryTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

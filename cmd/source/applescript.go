package source

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/GiGurra/cmder"
)

//go:embed spotify_state.applescript
var spotifyStateScript string

// AppleScript queries Spotify on macOS through osascript.
type AppleScript struct {
	timeout time.Duration
	script  string
	command []string
}

func NewAppleScript(timeout time.Duration) *AppleScript {
	return &AppleScript{
		timeout: timeout,
		script:  spotifyStateScript,
		command: []string{"osascript", "-e"},
	}
}

func (a *AppleScript) Name() string {
	return "applescript"
}

func (a *AppleScript) QueryState(ctx context.Context) string {
	return QueryWithTimeout(ctx, a.timeout, a.run)
}

func (a *AppleScript) run(ctx context.Context) (string, error) {
	args := append(append([]string{}, a.command...), a.script)
	result := cmder.New(args...).Run(ctx)
	if result.Err != nil {
		if result.Combined != "" {
			return "", fmt.Errorf("osascript failed: %w\n%s", result.Err, result.Combined)
		}
		return "", fmt.Errorf("osascript failed: %w", result.Err)
	}

	out := strings.TrimSpace(result.StdOut)
	if out == "" {
		return ResultError, nil
	}
	return out, nil
}

package common

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// SetupLogging configures slog to write to the log file and, when console is set, to stderr too.
// Full-screen modes pass console=false so log lines don't tear the display.
func SetupLogging(verbose, console bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}
	if logFile := openLogFile(LogPath()); logFile != nil {
		writers = append(writers, logFile)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func openLogFile(path string) *os.File {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}

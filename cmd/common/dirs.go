package common

import (
	"os"
	"path/filepath"
)

const appName = "nowplaying"

// ConfigDir returns the directory holding config.json (~/.nowplaying).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+appName)
}

// StateDir returns the directory for logs and other runtime state.
func StateDir() string {
	return filepath.Join(stateHome(), appName)
}

// LogPath returns the path of the log file.
func LogPath() string {
	return filepath.Join(StateDir(), appName+".log")
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func stateHome() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return dir
}

package source

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessChecker tells whether a process with the given name is running.
type ProcessChecker struct {
	name  string
	names func(ctx context.Context) ([]string, error)
}

func NewProcessChecker(name string) *ProcessChecker {
	return &ProcessChecker{name: name, names: processNames}
}

// IsRunning matches process names case-insensitively. Listing errors count as not running.
func (p *ProcessChecker) IsRunning(ctx context.Context) bool {
	names, err := p.names(ctx)
	if err != nil {
		slog.Warn("failed to list processes", "error", err)
		return false
	}
	for _, name := range names {
		if strings.EqualFold(name, p.name) {
			return true
		}
	}
	return false
}

func processNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, proc := range procs {
		// Processes can exit between listing and lookup
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

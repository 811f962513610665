// Package supervisor starts and stops the monitor as the player launches and quits.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/gigurra/nowplaying/cmd/monitor"
	"github.com/gigurra/nowplaying/cmd/source"
)

// Controller is the part of a monitor the supervisor drives.
type Controller interface {
	Start()
	Stop()
	HandleResult(raw string)
}

type Supervisor struct {
	liveness  monitor.LivenessChecker
	ctrl      Controller
	interval  time.Duration
	initDelay time.Duration
}

// New creates a supervisor that checks liveness every interval and starts the monitor
// initDelay after the player appears, giving it time to initialize.
func New(liveness monitor.LivenessChecker, ctrl Controller, interval, initDelay time.Duration) *Supervisor {
	return &Supervisor{
		liveness:  liveness,
		ctrl:      ctrl,
		interval:  interval,
		initDelay: initDelay,
	}
}

// Run starts the monitor right away, then follows the player's launches and exits until
// ctx is done. The monitor is stopped on return.
func (s *Supervisor) Run(ctx context.Context) {
	s.ctrl.Start()
	defer s.ctrl.Stop()

	running := s.liveness.IsRunning(ctx)
	slog.Debug("supervisor started", "player_running", running)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var pending *time.Timer
	var pendingC <-chan time.Time
	cancelPending := func() {
		if pending != nil {
			pending.Stop()
			pending, pendingC = nil, nil
		}
	}
	defer cancelPending()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pendingC:
			pending, pendingC = nil, nil
			slog.Debug("starting monitor after player launch")
			s.ctrl.Start()
		case <-ticker.C:
			now := s.liveness.IsRunning(ctx)
			switch {
			case now && !running:
				slog.Info("player launched", "init_delay", s.initDelay)
				cancelPending()
				pending = time.NewTimer(s.initDelay)
				pendingC = pending.C
			case !now && running:
				slog.Info("player terminated")
				cancelPending()
				s.ctrl.Stop()
				s.ctrl.HandleResult(source.ResultNotRunning)
			}
			running = now
		}
	}
}

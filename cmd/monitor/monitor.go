// Package monitor polls the player and reports playback changes.
//
// The player's own playing flag is not trusted on its own: some players keep reporting
// "playing" after playback stalls. The monitor samples the playback position and, when it
// has not moved over PositionWindow, treats the player as paused. Notifications are sent
// only when (artist, track, playing) changes, and the polling interval stretches while
// paused.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gigurra/nowplaying/cmd/source"
	"github.com/samber/lo"
)

const (
	// PositionWindow is how long the position must be observed before the playing
	// state is re-evaluated.
	PositionWindow = 2 * time.Second

	DefaultPlayingInterval = 1 * time.Second
	DefaultPausedInterval  = 3 * time.Second
)

// Querier asks the player for a state record.
type Querier interface {
	QueryState(ctx context.Context) string
}

// LivenessChecker tells whether the player process is running.
type LivenessChecker interface {
	IsRunning(ctx context.Context) bool
}

// Options tune a Monitor. Zero values fall back to the defaults.
type Options struct {
	PlayingInterval time.Duration
	PausedInterval  time.Duration
	// Now is the clock used for position sampling.
	Now func() time.Time
}

// State is what the monitor remembers between polls.
type State struct {
	LastArtist        *string
	LastTrack         *string
	LastPlaying       bool
	LastPosition      int
	LastPositionCheck time.Time
	PollInterval      time.Duration
}

// Monitor polls a Querier and reports changes to a Sink.
//
// While monitoring, all reconciliation and sink calls happen on a single goroutine, so
// State needs no locking. Start and Stop are idempotent and safe to call from any
// goroutine except a sink callback.
type Monitor struct {
	querier  Querier
	liveness LivenessChecker
	sink     Sink
	opts     Options

	state State
	// generation advances whenever the player is declared gone. Query results from an
	// older generation are dropped.
	generation uint64

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	injected chan string
}

// New creates a stopped monitor. A nil liveness checker means the player is assumed to run.
func New(querier Querier, liveness LivenessChecker, sink Sink, opts Options) *Monitor {
	if opts.PlayingInterval <= 0 {
		opts.PlayingInterval = DefaultPlayingInterval
	}
	if opts.PausedInterval <= 0 {
		opts.PausedInterval = DefaultPausedInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sink == nil {
		sink = SinkFuncs{}
	}
	return &Monitor{
		querier:  querier,
		liveness: liveness,
		sink:     sink,
		opts:     opts,
		state: State{
			LastPosition: -1,
			PollInterval: opts.PlayingInterval,
		},
	}
}

// Start begins polling at the current interval and issues one query right away.
// Calling Start on a running monitor does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		slog.Debug("monitor already running, ignoring start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.injected = make(chan string)

	slog.Debug("starting monitor", "interval", m.state.PollInterval)
	go m.run(ctx, m.done, m.injected)
}

// Stop cancels polling and waits for the monitor goroutine to exit. Once Stop returns no
// further ticks fire and results of queries still in flight are discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}

	m.cancel()
	<-m.done
	m.cancel, m.done, m.injected = nil, nil, nil
	slog.Debug("monitor stopped")
}

// Running reports whether the monitor is polling.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// HandleResult reconciles one raw query result. While running, the result is handed to
// the monitor goroutine; while stopped it is processed on the caller's goroutine.
func (m *Monitor) HandleResult(raw string) {
	m.mu.Lock()
	if m.cancel == nil {
		defer m.mu.Unlock()
		m.reconcile(raw)
		return
	}
	injected, done := m.injected, m.done
	m.mu.Unlock()

	select {
	case injected <- raw:
	case <-done:
	}
}

// CurrentState returns a copy of the monitor's state. While running the state belongs to
// the monitor goroutine and the zero State is returned.
func (m *Monitor) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return State{}
	}
	return m.state
}

func (m *Monitor) run(ctx context.Context, done chan struct{}, injected chan string) {
	defer close(done)

	ticker := time.NewTicker(m.state.PollInterval)
	defer ticker.Stop()

	type queryResult struct {
		raw        string
		generation uint64
	}
	results := make(chan queryResult)
	inFlight := false
	query := func() {
		if inFlight {
			slog.Debug("previous query still in flight, skipping tick")
			return
		}
		inFlight = true
		generation := m.generation
		go func() {
			raw := m.querier.QueryState(ctx)
			select {
			case results <- queryResult{raw: raw, generation: generation}:
			case <-ctx.Done():
			}
		}()
	}

	query()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.liveness != nil && !m.liveness.IsRunning(ctx) {
				m.handleNotRunning()
				continue
			}
			query()
		case res := <-results:
			inFlight = false
			if ctx.Err() != nil {
				return
			}
			if res.generation != m.generation {
				slog.Debug("discarding result of query issued before the player went away")
				continue
			}
			if m.reconcile(res.raw) {
				ticker.Reset(m.state.PollInterval)
			}
		case raw := <-injected:
			if m.reconcile(raw) {
				ticker.Reset(m.state.PollInterval)
			}
		}
	}
}

// reconcile applies one query result and reports whether the polling interval changed.
func (m *Monitor) reconcile(raw string) bool {
	if source.IsUnavailable(raw) {
		m.handleNotRunning()
		return false
	}

	snap, ok := ParseSnapshot(raw)
	if !ok {
		slog.Debug("discarding malformed player record", "raw", raw)
		return false
	}

	playing := m.inferPlaying(snap, m.opts.Now())
	slog.Debug("player state",
		"artist", lo.FromPtr(snap.Artist),
		"track", lo.FromPtr(snap.Track),
		"position", snap.PositionSeconds,
		"duration_ms", snap.DurationMillis,
		"reported_playing", snap.ReportedPlaying,
		"playing", playing)

	if sameString(m.state.LastArtist, snap.Artist) &&
		sameString(m.state.LastTrack, snap.Track) &&
		m.state.LastPlaying == playing {
		return false
	}

	m.state.LastArtist = snap.Artist
	m.state.LastTrack = snap.Track
	m.state.LastPlaying = playing
	m.sink.StateChanged(StateChange{
		Playing: playing,
		Artist:  snap.Artist,
		Track:   snap.Track,
	})

	return m.adjustInterval(playing)
}

// inferPlaying decides whether the player is actually playing. With less than
// PositionWindow since the last sample the previous decision stands.
func (m *Monitor) inferPlaying(snap Snapshot, now time.Time) bool {
	if now.Sub(m.state.LastPositionCheck) < PositionWindow {
		return m.state.LastPlaying
	}

	playing := snap.ReportedPlaying
	if playing && snap.PositionSeconds == m.state.LastPosition {
		slog.Debug("position unchanged, treating as paused despite player reporting playing",
			"position", snap.PositionSeconds)
		playing = false
	}
	m.state.LastPosition = snap.PositionSeconds
	m.state.LastPositionCheck = now
	return playing
}

func (m *Monitor) handleNotRunning() {
	m.generation++
	if m.state.LastArtist == nil && m.state.LastTrack == nil {
		return
	}
	m.state.LastArtist = nil
	m.state.LastTrack = nil
	m.state.LastPlaying = false
	m.sink.SourceNotRunning()
}

func (m *Monitor) adjustInterval(playing bool) bool {
	target := m.opts.PausedInterval
	if playing {
		target = m.opts.PlayingInterval
	}
	if target == m.state.PollInterval {
		return false
	}
	slog.Debug("adjusting polling interval", "from", m.state.PollInterval, "to", target, "playing", playing)
	m.state.PollInterval = target
	return true
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSink struct {
	mu         sync.Mutex
	changes    []StateChange
	notRunning int
	events     chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan string, 100)}
}

func (s *recordingSink) StateChanged(change StateChange) {
	s.mu.Lock()
	s.changes = append(s.changes, change)
	s.mu.Unlock()
	s.events <- "changed"
}

func (s *recordingSink) SourceNotRunning() {
	s.mu.Lock()
	s.notRunning++
	s.mu.Unlock()
	s.events <- "not_running"
}

func (s *recordingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.changes), s.notRunning
}

func (s *recordingSink) last() StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes[len(s.changes)-1]
}

func (s *recordingSink) waitFor(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-s.events:
		if got != want {
			t.Fatalf("event = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

type queryFunc func(ctx context.Context) string

func (f queryFunc) QueryState(ctx context.Context) string { return f(ctx) }

type livenessFunc func(ctx context.Context) bool

func (f livenessFunc) IsRunning(ctx context.Context) bool { return f(ctx) }

func newStoppedMonitor() (*Monitor, *fakeClock, *recordingSink) {
	clock := newFakeClock()
	sink := newRecordingSink()
	m := New(queryFunc(func(context.Context) string { return "not_running" }), nil, sink, Options{Now: clock.Now})
	return m, clock, sink
}

func TestMalformedRecordFiresNothing(t *testing.T) {
	m, _, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|Track")
	m.HandleResult("garbage")
	m.HandleResult("")

	changes, notRunning := sink.counts()
	if changes != 0 || notRunning != 0 {
		t.Errorf("got %d changes, %d not-running; want none", changes, notRunning)
	}
	if st := m.CurrentState(); st.LastArtist != nil || st.LastPosition != -1 {
		t.Errorf("state mutated by malformed record: %+v", st)
	}
}

func TestNotRunningAfterPlaying(t *testing.T) {
	for _, sentinel := range []string{"not_running", "error", "timeout"} {
		t.Run(sentinel, func(t *testing.T) {
			m, _, sink := newStoppedMonitor()
			m.HandleResult("playing|Artist|Track|10|200000")

			m.HandleResult(sentinel)
			m.HandleResult(sentinel)

			changes, notRunning := sink.counts()
			if changes != 1 {
				t.Errorf("changes = %d, want 1 (the initial playing event only)", changes)
			}
			if notRunning != 1 {
				t.Errorf("notRunning = %d, want 1", notRunning)
			}
			st := m.CurrentState()
			if st.LastArtist != nil || st.LastTrack != nil || st.LastPlaying {
				t.Errorf("state not cleared: %+v", st)
			}
		})
	}
}

func TestNotRunningWithoutPriorTrackIsSilent(t *testing.T) {
	m, _, sink := newStoppedMonitor()
	m.HandleResult("not_running")

	if changes, notRunning := sink.counts(); changes != 0 || notRunning != 0 {
		t.Errorf("got %d changes, %d not-running; want none", changes, notRunning)
	}
}

func TestIdenticalStateFiresOnce(t *testing.T) {
	m, clock, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|Track|10|200000")
	clock.Advance(3 * time.Second)
	m.HandleResult("playing|Artist|Track|13|200000")

	if changes, _ := sink.counts(); changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}

func TestPlayingToPaused(t *testing.T) {
	m, clock, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|Track|10|200000")
	clock.Advance(3 * time.Second)
	m.HandleResult("paused|Artist|Track|12|200000")

	changes, _ := sink.counts()
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
	last := sink.last()
	if last.Playing {
		t.Error("expected paused event")
	}
	if last.ArtistName() != "Artist" || last.TrackName() != "Track" {
		t.Errorf("event = %q/%q, want Artist/Track", last.ArtistName(), last.TrackName())
	}
}

func TestStalledPositionIsPaused(t *testing.T) {
	m, clock, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|Track|10|200000")
	clock.Advance(PositionWindow)
	m.HandleResult("playing|Artist|Track|10|200000")

	changes, _ := sink.counts()
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
	if sink.last().Playing {
		t.Error("stalled position should be inferred as paused")
	}

	// Position moves again: trust the reported flag.
	clock.Advance(PositionWindow)
	m.HandleResult("playing|Artist|Track|12|200000")
	if !sink.last().Playing {
		t.Error("moving position should be inferred as playing")
	}
}

func TestWithinWindowKeepsPreviousInference(t *testing.T) {
	m, clock, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|Track|10|200000")
	clock.Advance(time.Second)
	m.HandleResult("paused|Artist|Track|10|200000")

	if changes, _ := sink.counts(); changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
	st := m.CurrentState()
	if !st.LastPlaying {
		t.Error("playing state should be kept inside the window")
	}
	if st.LastPosition != 10 {
		t.Errorf("LastPosition = %d, want 10", st.LastPosition)
	}
}

func TestTrackChangeInsideWindowKeepsPlayingFlag(t *testing.T) {
	m, clock, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|One|10|200000")
	clock.Advance(500 * time.Millisecond)
	m.HandleResult("playing|Artist|Two|0|180000")

	changes, _ := sink.counts()
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
	last := sink.last()
	if !last.Playing || last.TrackName() != "Two" {
		t.Errorf("event = %+v, want playing Two", last)
	}
}

func TestEmptyFieldsEmitAbsent(t *testing.T) {
	m, clock, sink := newStoppedMonitor()

	m.HandleResult("playing|Artist|Track|10|200000")
	clock.Advance(PositionWindow)
	m.HandleResult("paused|||0|0")

	changes, _ := sink.counts()
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
	last := sink.last()
	if last.Playing {
		t.Error("expected paused event")
	}
	if last.Artist != nil || last.Track != nil {
		t.Errorf("expected absent artist/track, got %v/%v", last.Artist, last.Track)
	}
	if last.HasTrack() {
		t.Error("HasTrack should be false")
	}
}

func TestIntervalFollowsPlayingState(t *testing.T) {
	m, clock, _ := newStoppedMonitor()

	if got := m.CurrentState().PollInterval; got != DefaultPlayingInterval {
		t.Fatalf("initial interval = %v, want %v", got, DefaultPlayingInterval)
	}

	m.HandleResult("paused|Artist|Track|10|200000")
	if got := m.CurrentState().PollInterval; got != DefaultPausedInterval {
		t.Errorf("paused interval = %v, want %v", got, DefaultPausedInterval)
	}

	clock.Advance(3 * time.Second)
	m.HandleResult("playing|Artist|Track|11|200000")
	if got := m.CurrentState().PollInterval; got != DefaultPlayingInterval {
		t.Errorf("playing interval = %v, want %v", got, DefaultPlayingInterval)
	}
}

func TestAdjustIntervalOnlyOnChange(t *testing.T) {
	m, _, _ := newStoppedMonitor()

	if m.adjustInterval(true) {
		t.Error("playing interval already active, expected no reschedule")
	}
	if !m.adjustInterval(false) {
		t.Error("expected reschedule when switching to paused")
	}
	if m.adjustInterval(false) {
		t.Error("paused interval already active, expected no reschedule")
	}
}

func TestStartQueriesImmediately(t *testing.T) {
	sink := newRecordingSink()
	var calls atomic.Int32
	q := queryFunc(func(context.Context) string {
		calls.Add(1)
		return "playing|Artist|Track|10|200000"
	})
	m := New(q, nil, sink, Options{PlayingInterval: time.Hour, PausedInterval: time.Hour})

	m.Start()
	defer m.Stop()

	sink.waitFor(t, "changed")
	if !sink.last().Playing {
		t.Error("expected playing event")
	}
	if calls.Load() != 1 {
		t.Errorf("queries = %d, want 1", calls.Load())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	sink := newRecordingSink()
	var calls atomic.Int32
	q := queryFunc(func(context.Context) string {
		calls.Add(1)
		return "paused|Artist|Track|10|200000"
	})
	m := New(q, nil, sink, Options{PlayingInterval: time.Hour, PausedInterval: time.Hour})

	m.Stop()
	m.Start()
	m.Start()
	sink.waitFor(t, "changed")
	if !m.Running() {
		t.Error("expected running")
	}

	m.Stop()
	m.Stop()
	if m.Running() {
		t.Error("expected stopped")
	}
	if calls.Load() != 1 {
		t.Errorf("queries = %d, want 1", calls.Load())
	}
}

func TestTickChecksLivenessBeforeQuerying(t *testing.T) {
	sink := newRecordingSink()
	var calls atomic.Int32
	q := queryFunc(func(context.Context) string {
		calls.Add(1)
		return "playing|Artist|Track|10|200000"
	})
	alive := livenessFunc(func(context.Context) bool { return false })
	m := New(q, alive, sink, Options{PlayingInterval: 10 * time.Millisecond, PausedInterval: 10 * time.Millisecond})

	m.Start()
	sink.waitFor(t, "changed")
	sink.waitFor(t, "not_running")
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	if calls.Load() != 1 {
		t.Errorf("queries = %d, want only the initial one", calls.Load())
	}
	if _, notRunning := sink.counts(); notRunning != 1 {
		t.Errorf("notRunning = %d, want 1", notRunning)
	}
}

func TestSkipsTicksWhileQueryInFlight(t *testing.T) {
	sink := newRecordingSink()
	var calls atomic.Int32
	release := make(chan struct{})
	q := queryFunc(func(ctx context.Context) string {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "playing|Artist|Track|10|200000"
	})
	m := New(q, nil, sink, Options{PlayingInterval: 5 * time.Millisecond, PausedInterval: 5 * time.Millisecond})

	m.Start()
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("queries while first in flight = %d, want 1", got)
	}
	close(release)
	sink.waitFor(t, "changed")
	m.Stop()
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	sink := newRecordingSink()
	started := make(chan struct{})
	q := queryFunc(func(ctx context.Context) string {
		close(started)
		<-ctx.Done()
		return "playing|Artist|Track|10|200000"
	})
	m := New(q, nil, sink, Options{PlayingInterval: time.Hour, PausedInterval: time.Hour})

	m.Start()
	<-started
	m.Stop()
	time.Sleep(20 * time.Millisecond)

	if changes, notRunning := sink.counts(); changes != 0 || notRunning != 0 {
		t.Errorf("got %d changes, %d not-running after stop; want none", changes, notRunning)
	}
}

func TestResultAfterPlayerGoneIsDropped(t *testing.T) {
	sink := newRecordingSink()
	var alive atomic.Bool
	alive.Store(true)
	var calls atomic.Int32
	secondStarted := make(chan struct{})
	release := make(chan struct{})
	q := queryFunc(func(ctx context.Context) string {
		if calls.Add(1) == 2 {
			close(secondStarted)
			select {
			case <-release:
			case <-ctx.Done():
			}
		}
		return "playing|Artist|Track|10|200000"
	})
	live := livenessFunc(func(context.Context) bool { return alive.Load() })
	m := New(q, live, sink, Options{PlayingInterval: 10 * time.Millisecond, PausedInterval: 10 * time.Millisecond})

	m.Start()
	sink.waitFor(t, "changed")
	<-secondStarted
	alive.Store(false)
	sink.waitFor(t, "not_running")
	close(release)
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	changes, notRunning := sink.counts()
	if changes != 1 || notRunning != 1 {
		t.Errorf("got %d changes, %d not-running; want 1, 1", changes, notRunning)
	}
}

func TestCurrentStateWhileRunningIsZero(t *testing.T) {
	q := queryFunc(func(context.Context) string { return "garbage" })
	m := New(q, nil, nil, Options{PlayingInterval: time.Hour, PausedInterval: time.Hour})

	m.Start()
	defer m.Stop()

	if st := m.CurrentState(); st != (State{}) {
		t.Errorf("CurrentState() while running = %+v, want zero", st)
	}
}

func TestHandleResultWhileRunning(t *testing.T) {
	sink := newRecordingSink()
	q := queryFunc(func(context.Context) string { return "garbage" })
	m := New(q, nil, sink, Options{PlayingInterval: time.Hour, PausedInterval: time.Hour})

	m.Start()
	defer m.Stop()

	m.HandleResult("playing|Artist|Track|10|200000")
	sink.waitFor(t, "changed")
	m.HandleResult("not_running")
	sink.waitFor(t, "not_running")
}

func TestMultiSink(t *testing.T) {
	a, b := newRecordingSink(), newRecordingSink()
	var fnCalls int
	s := Multi(a, nil, b, SinkFuncs{OnSourceNotRunning: func() { fnCalls++ }})

	s.StateChanged(StateChange{Playing: true})
	s.SourceNotRunning()

	for _, r := range []*recordingSink{a, b} {
		if changes, notRunning := r.counts(); changes != 1 || notRunning != 1 {
			t.Errorf("got %d changes, %d not-running; want 1, 1", changes, notRunning)
		}
	}
	if fnCalls != 1 {
		t.Errorf("func sink calls = %d, want 1", fnCalls)
	}
}

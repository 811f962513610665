package monitor

import "github.com/samber/lo"

// StateChange is delivered when artist, track or the inferred playing state changed.
type StateChange struct {
	Playing bool
	Artist  *string
	Track   *string
}

// ArtistName returns the artist, or "" when absent.
func (s StateChange) ArtistName() string {
	return lo.FromPtr(s.Artist)
}

// TrackName returns the track, or "" when absent.
func (s StateChange) TrackName() string {
	return lo.FromPtr(s.Track)
}

// HasTrack reports whether both artist and track are present.
func (s StateChange) HasTrack() bool {
	return s.ArtistName() != "" && s.TrackName() != ""
}

// Sink receives monitor notifications. Calls come from the monitor goroutine, one at a
// time. A sink must not call Monitor.Stop synchronously.
type Sink interface {
	StateChanged(change StateChange)
	SourceNotRunning()
}

// SinkFuncs adapts plain functions to a Sink. Nil functions are skipped.
type SinkFuncs struct {
	OnStateChanged     func(change StateChange)
	OnSourceNotRunning func()
}

func (s SinkFuncs) StateChanged(change StateChange) {
	if s.OnStateChanged != nil {
		s.OnStateChanged(change)
	}
}

func (s SinkFuncs) SourceNotRunning() {
	if s.OnSourceNotRunning != nil {
		s.OnSourceNotRunning()
	}
}

// Multi fans notifications out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return multiSink(lo.Filter(sinks, func(s Sink, _ int) bool { return s != nil }))
}

type multiSink []Sink

func (m multiSink) StateChanged(change StateChange) {
	for _, s := range m {
		s.StateChanged(change)
	}
}

func (m multiSink) SourceNotRunning() {
	for _, s := range m {
		s.SourceNotRunning()
	}
}

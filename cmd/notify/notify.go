// Package notify sends a desktop notification when a new track starts playing.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/gigurra/nowplaying/cmd/monitor"
)

const title = "Now Playing"

// Notifier is a monitor.Sink. It notifies once per (artist, track) pair, only while
// playing, and at most once per cooldown. Pausing and resuming a track does not notify.
type Notifier struct {
	cooldown time.Duration
	send     func(title, message string) error
	now      func() time.Time

	mu       sync.Mutex
	artist   string
	track    string
	lastSent time.Time
}

func New(cooldown time.Duration) *Notifier {
	return &Notifier{
		cooldown: cooldown,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		now: time.Now,
	}
}

func (n *Notifier) StateChanged(change monitor.StateChange) {
	if !change.Playing || !change.HasTrack() {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if change.ArtistName() == n.artist && change.TrackName() == n.track {
		return
	}
	n.artist, n.track = change.ArtistName(), change.TrackName()

	now := n.now()
	if !n.lastSent.IsZero() && now.Sub(n.lastSent) < n.cooldown {
		slog.Debug("notification suppressed by cooldown", "artist", n.artist, "track", n.track)
		return
	}

	message := n.artist + " - " + n.track
	if err := n.send(title, message); err != nil {
		slog.Warn("failed to send notification", "error", err)
		return
	}
	n.lastSent = now
}

// SourceNotRunning forgets the last track, so the same track notifies again after a relaunch.
func (n *Notifier) SourceNotRunning() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.artist, n.track = "", ""
}

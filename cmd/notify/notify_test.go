package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/gigurra/nowplaying/cmd/monitor"
)

type sent struct {
	title   string
	message string
}

func newTestNotifier(cooldown time.Duration) (*Notifier, *[]sent, *time.Time) {
	var out []sent
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := New(cooldown)
	n.send = func(title, message string) error {
		out = append(out, sent{title, message})
		return nil
	}
	n.now = func() time.Time { return now }
	return n, &out, &now
}

func change(playing bool, artist, track string) monitor.StateChange {
	return monitor.StateChange{Playing: playing, Artist: &artist, Track: &track}
}

func TestNotifiesOnNewTrack(t *testing.T) {
	n, out, now := newTestNotifier(5 * time.Second)

	n.StateChanged(change(true, "Artist", "One"))
	*now = now.Add(10 * time.Second)
	n.StateChanged(change(true, "Artist", "Two"))

	if len(*out) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(*out))
	}
	if got := (*out)[1]; got.title != "Now Playing" || got.message != "Artist - Two" {
		t.Errorf("notification = %+v", got)
	}
}

func TestPauseResumeDoesNotNotify(t *testing.T) {
	n, out, now := newTestNotifier(0)

	n.StateChanged(change(true, "Artist", "One"))
	*now = now.Add(time.Minute)
	n.StateChanged(change(false, "Artist", "One"))
	n.StateChanged(change(true, "Artist", "One"))

	if len(*out) != 1 {
		t.Errorf("sent %d notifications, want 1", len(*out))
	}
}

func TestPausedTrackDoesNotNotify(t *testing.T) {
	n, out, _ := newTestNotifier(0)

	n.StateChanged(change(false, "Artist", "One"))
	n.StateChanged(monitor.StateChange{Playing: true})

	if len(*out) != 0 {
		t.Errorf("sent %d notifications, want 0", len(*out))
	}
}

func TestCooldown(t *testing.T) {
	n, out, now := newTestNotifier(5 * time.Second)

	n.StateChanged(change(true, "Artist", "One"))
	*now = now.Add(time.Second)
	n.StateChanged(change(true, "Artist", "Two"))
	*now = now.Add(5 * time.Second)
	n.StateChanged(change(true, "Artist", "Three"))

	if len(*out) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(*out))
	}
	if got := (*out)[1].message; got != "Artist - Three" {
		t.Errorf("second notification = %q", got)
	}
}

func TestRelaunchNotifiesSameTrackAgain(t *testing.T) {
	n, out, now := newTestNotifier(0)

	n.StateChanged(change(true, "Artist", "One"))
	n.SourceNotRunning()
	*now = now.Add(time.Second)
	n.StateChanged(change(true, "Artist", "One"))

	if len(*out) != 2 {
		t.Errorf("sent %d notifications, want 2", len(*out))
	}
}

func TestSendFailureIsNotFatal(t *testing.T) {
	n, _, _ := newTestNotifier(0)
	calls := 0
	n.send = func(string, string) error {
		calls++
		return errors.New("no notification daemon")
	}

	n.StateChanged(change(true, "Artist", "One"))
	n.StateChanged(change(true, "Artist", "Two"))

	if calls != 2 {
		t.Errorf("send called %d times, want 2", calls)
	}
}

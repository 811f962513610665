package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisObjectPath      = "/org/mpris/MediaPlayer2"
	mprisBusPrefix       = "org.mpris.MediaPlayer2."
	mprisPlayerIface     = "org.mpris.MediaPlayer2.Player"
	dbusServiceUnknown   = "org.freedesktop.DBus.Error.ServiceUnknown"
	dbusNameHasNoOwner   = "org.freedesktop.DBus.Error.NameHasNoOwner"
	mprisStatusPlaying   = "Playing"
	mprisMetaArtist      = "xesam:artist"
	mprisMetaTitle       = "xesam:title"
	mprisMetaLength      = "mpris:length"
	microsPerSecond      = int64(time.Second / time.Microsecond)
	microsPerMillisecond = int64(time.Millisecond / time.Microsecond)
)

// MPRIS queries a player over the D-Bus session bus (Linux and BSDs).
type MPRIS struct {
	player  string
	timeout time.Duration
	connect func() (*dbus.Conn, error)
}

func NewMPRIS(player string, timeout time.Duration) *MPRIS {
	return &MPRIS{
		player:  player,
		timeout: timeout,
		connect: dbus.SessionBus,
	}
}

func (m *MPRIS) Name() string {
	return "mpris"
}

func (m *MPRIS) QueryState(ctx context.Context) string {
	return QueryWithTimeout(ctx, m.timeout, m.run)
}

func (m *MPRIS) run(ctx context.Context) (string, error) {
	conn, err := m.connect()
	if err != nil {
		return "", fmt.Errorf("failed to connect to session bus: %w", err)
	}
	obj := conn.Object(mprisBusPrefix+m.player, mprisObjectPath)

	status, err := getProperty(ctx, obj, "PlaybackStatus")
	if err != nil {
		if isServiceUnknown(err) {
			return ResultNotRunning, nil
		}
		return "", fmt.Errorf("failed to read playback status: %w", err)
	}
	metadata, err := getProperty(ctx, obj, "Metadata")
	if err != nil {
		return "", fmt.Errorf("failed to read metadata: %w", err)
	}
	// Some players don't implement Position, treat it as 0.
	var position int64
	if pos, err := getProperty(ctx, obj, "Position"); err == nil {
		position = variantInt64(pos)
	}

	statusStr, _ := status.Value().(string)
	meta, _ := metadata.Value().(map[string]dbus.Variant)
	return formatRecord(statusStr, meta, position), nil
}

func getProperty(ctx context.Context, obj dbus.BusObject, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, mprisPlayerIface, name).Store(&v)
	return v, err
}

// formatRecord builds the pipe-delimited record from MPRIS properties.
// Position comes in microseconds and is reported in whole seconds; length becomes milliseconds.
func formatRecord(status string, meta map[string]dbus.Variant, positionMicros int64) string {
	state := "paused"
	if status == mprisStatusPlaying {
		state = "playing"
	}

	var artist, title string
	var lengthMicros int64
	if v, ok := meta[mprisMetaArtist]; ok {
		switch a := v.Value().(type) {
		case []string:
			artist = strings.Join(a, ", ")
		case string:
			artist = a
		}
	}
	if v, ok := meta[mprisMetaTitle]; ok {
		title, _ = v.Value().(string)
	}
	if v, ok := meta[mprisMetaLength]; ok {
		lengthMicros = variantInt64(v)
	}

	return fmt.Sprintf("%s|%s|%s|%d|%d",
		state, artist, title,
		positionMicros/microsPerSecond,
		lengthMicros/microsPerMillisecond)
}

func variantInt64(v dbus.Variant) int64 {
	switch n := v.Value().(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func isServiceUnknown(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name == dbusServiceUnknown || dbusErr.Name == dbusNameHasNoOwner
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) {
		return dbusErrPtr.Name == dbusServiceUnknown || dbusErrPtr.Name == dbusNameHasNoOwner
	}
	return false
}

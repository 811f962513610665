package monitor

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const recordFields = 5

// Snapshot is one parsed player record.
type Snapshot struct {
	ReportedPlaying bool
	Artist          *string // nil when the player reported an empty artist
	Track           *string // nil when the player reported an empty track
	PositionSeconds int
	DurationMillis  int
}

// ParseSnapshot parses "<playing|paused>|<artist>|<track>|<positionSeconds>|<durationMillis>".
// ok is false when the record has fewer than five fields. Non-numeric position or
// duration parse as 0.
func ParseSnapshot(raw string) (snap Snapshot, ok bool) {
	fields := strings.Split(raw, "|")
	if len(fields) < recordFields {
		return Snapshot{}, false
	}
	return Snapshot{
		ReportedPlaying: fields[0] == "playing",
		Artist:          lo.EmptyableToPtr(fields[1]),
		Track:           lo.EmptyableToPtr(fields[2]),
		PositionSeconds: atoiOrZero(fields[3]),
		DurationMillis:  atoiOrZero(fields[4]),
	}, true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

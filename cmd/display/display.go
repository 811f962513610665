// Package display formats artist and track names into a bounded-length label.
//
// Lengths are counted in grapheme clusters (user-perceived characters), so an emoji
// sequence or a letter with combining accents counts as one.
package display

import (
	"sync"

	"github.com/rivo/uniseg"
)

const (
	DefaultMaxLength = 50

	separator = " - "
	ellipsis  = "..."
)

// Format joins artist and track as "artist - track". When the result would exceed
// maxLength clusters, both parts are cut so that the artist gets at most half of the
// remaining room and "..." is appended.
func Format(artist, track string, maxLength int) string {
	sepLen := uniseg.GraphemeClusterCount(separator)
	artistLen := uniseg.GraphemeClusterCount(artist)
	total := artistLen + sepLen + uniseg.GraphemeClusterCount(track)
	if total <= maxLength {
		return artist + separator + track
	}

	available := maxLength - sepLen - uniseg.GraphemeClusterCount(ellipsis)
	keepArtist := max(min(artistLen, available/2), 0)
	keepTrack := max(available-keepArtist, 0)

	return truncate(artist, keepArtist) + separator + truncate(track, keepTrack) + ellipsis
}

// truncate returns the first n grapheme clusters of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(s)
	end := 0
	for count := 0; count < n && g.Next(); count++ {
		_, end = g.Positions()
	}
	return s[:end]
}

// Formatter formats labels for a fixed max length and remembers the last result.
// Safe for concurrent use.
type Formatter struct {
	maxLength int

	mu     sync.RWMutex
	artist string
	track  string
	text   string
	cached bool
}

func NewFormatter(maxLength int) *Formatter {
	return &Formatter{maxLength: maxLength}
}

func (f *Formatter) MaxLength() int {
	return f.maxLength
}

// Format returns the same value as the package-level Format for f's max length.
func (f *Formatter) Format(artist, track string) string {
	f.mu.RLock()
	if f.cached && f.artist == artist && f.track == track {
		text := f.text
		f.mu.RUnlock()
		return text
	}
	f.mu.RUnlock()

	text := Format(artist, track, f.maxLength)

	f.mu.Lock()
	f.artist, f.track, f.text, f.cached = artist, track, text, true
	f.mu.Unlock()

	return text
}

// Package statusline turns monitor events into the one-line label shown in a status bar.
package statusline

import (
	"sync"

	"github.com/gigurra/nowplaying/cmd/config"
	"github.com/gigurra/nowplaying/cmd/display"
	"github.com/gigurra/nowplaying/cmd/monitor"
)

// Renderer builds labels from state changes. Settings can be swapped with Apply while
// other goroutines render.
type Renderer struct {
	mu        sync.RWMutex
	formatter *display.Formatter
	symbols   config.SymbolConfig
}

func NewRenderer(cfg *config.Config) *Renderer {
	r := &Renderer{}
	r.Apply(cfg)
	return r
}

// Apply takes the max length and symbols from cfg.
func (r *Renderer) Apply(cfg *config.Config) {
	symbols := config.SymbolConfig{
		Playing: config.DefaultPlayingSymbol,
		Paused:  config.DefaultPausedSymbol,
		Idle:    config.DefaultIdleSymbol,
	}
	if cfg.Symbols != nil {
		symbols = *cfg.Symbols
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.formatter == nil || r.formatter.MaxLength() != cfg.MaxDisplayLength {
		r.formatter = display.NewFormatter(cfg.MaxDisplayLength)
	}
	r.symbols = symbols
}

// Label is "<icon> <artist - track>" when a track is known, the idle symbol otherwise.
func (r *Renderer) Label(change monitor.StateChange) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !change.HasTrack() {
		return r.symbols.Idle
	}
	icon := r.symbols.Paused
	if change.Playing {
		icon = r.symbols.Playing
	}
	return icon + " " + r.formatter.Format(change.ArtistName(), change.TrackName())
}

// Idle is the label shown when nothing is playing or the player is not running.
func (r *Renderer) Idle() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbols.Idle
}

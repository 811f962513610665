package statusline

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// StringWidth returns the display width of a string in terminal cells.
func StringWidth(s string) int {
	return lipgloss.Width(s)
}

// TruncateWithEllipsis cuts s to fit within maxWidth terminal cells, ending in "…" when cut.
// Wide characters count as two cells.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}

	result := make([]rune, 0, len(s))
	width := 0
	target := maxWidth - 1
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if width+rw > target {
			break
		}
		result = append(result, r)
		width += rw
	}
	return string(result) + "…"
}

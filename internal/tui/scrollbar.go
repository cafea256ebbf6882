package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// scrollbar draws a vertical bar height rows tall for a window of height
// rows at offset into content rows. When everything fits the thumb fills
// the track.
type scrollbar struct {
	thumb lipgloss.Style
	track lipgloss.Style
}

func (s scrollbar) view(height, content, offset int) string {
	if height <= 0 {
		return ""
	}
	top, size := 0, height
	if content > height {
		size = max(1, min(height, height*height/content))
		maxOffset := content - height
		offset = max(0, min(offset, maxOffset))
		top = offset * (height - size) / maxOffset
	}

	// A non-breaking space keeps the thumb's background from being
	// optimised away.
	var b strings.Builder
	for i := range height {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i >= top && i < top+size {
			b.WriteString(s.thumb.Render("\u00a0"))
		} else {
			b.WriteString(s.track.Render("│"))
		}
	}
	return b.String()
}

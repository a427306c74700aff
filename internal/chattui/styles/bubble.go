package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	// bubbleShare is the widest a bubble may be, as a fraction of the pane.
	bubbleShare    = 0.75
	minBubbleWidth = 12
)

// BubbleStyles contains pre-built styles for message bubbles.
type BubbleStyles struct {
	Theme Theme

	Own         lipgloss.Style
	Other       lipgloss.Style
	Provisional lipgloss.Style
	Timestamp   lipgloss.Style
}

// NewBubbleStyles builds a reusable style set for bubbles.
func NewBubbleStyles(theme Theme) BubbleStyles {
	return BubbleStyles{
		Theme: theme,
		Own: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Bubble.OwnText)).
			Background(lipgloss.Color(theme.Bubble.Own)).
			Padding(0, 1),
		Other: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Bubble.OtherText)).
			Background(lipgloss.Color(theme.Bubble.Other)).
			Padding(0, 1),
		Provisional: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Bubble.Provisional)).
			Background(lipgloss.Color(theme.Bubble.Own)).
			Italic(true).
			Padding(0, 1),
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)),
	}
}

// Bubble describes one message to render.
type Bubble struct {
	Text        string
	Own         bool
	Provisional bool
	// Label is rendered under the bubble when non-empty.
	Label string
}

// Render renders b within a pane of the given width. Own bubbles are right
// aligned; the rest are left aligned.
func (s BubbleStyles) Render(b Bubble, width int) string {
	if width < minBubbleWidth {
		width = minBubbleWidth
	}
	inner := int(float64(width)*bubbleShare) - 2
	if inner < minBubbleWidth-2 {
		inner = minBubbleWidth - 2
	}

	style := s.Other
	switch {
	case b.Own && b.Provisional:
		style = s.Provisional
	case b.Own:
		style = s.Own
	}

	body := style.Render(WrapBody(b.Text, inner))
	align := lipgloss.Left
	if b.Own {
		align = lipgloss.Right
	}

	parts := []string{body}
	if b.Label != "" {
		parts = append(parts, s.Timestamp.Render(b.Label))
	}
	block := lipgloss.JoinVertical(align, parts...)
	return lipgloss.PlaceHorizontal(width, align, block)
}

// WrapBody word-wraps each line of body to width.
func WrapBody(body string, width int) string {
	if width <= 0 {
		return body
	}
	parts := strings.Split(body, "\n")
	for i := range parts {
		parts[i] = wordwrap.String(parts[i], width)
	}
	return strings.Join(parts, "\n")
}

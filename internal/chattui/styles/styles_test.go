package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestLookupFallsBackToDefault(t *testing.T) {
	require.Equal(t, "high-contrast", Lookup("high-contrast").Name)
	require.Equal(t, "default", Lookup("neon").Name)
}

func TestWrapBody(t *testing.T) {
	wrapped := WrapBody("one two three four", 9)
	for _, line := range strings.Split(wrapped, "\n") {
		require.LessOrEqual(t, len(line), 9)
	}
	require.Equal(t, "a\nb", WrapBody("a\nb", 0))
}

func TestRenderBubble(t *testing.T) {
	s := NewBubbleStyles(DefaultTheme)

	own := s.Render(Bubble{Text: "see you at five", Own: true, Label: "3:04 PM"}, 40)
	require.Contains(t, own, "see you at five")
	require.Contains(t, own, "3:04 PM")
	require.Equal(t, 40, lipgloss.Width(own))

	other := s.Render(Bubble{Text: "ok"}, 40)
	require.Contains(t, other, "ok")
	require.NotContains(t, other, "PM")
}

// Package styles holds the colors and bubble rendering of the chat TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// BubbleColors defines colors for each side of a conversation.
type BubbleColors struct {
	Own        string
	OwnText    string
	Other      string
	OtherText  string
	Provisional string
}

// StatusColors defines colors for composer feedback.
type StatusColors struct {
	Pending string
	Error   string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
}

// Theme defines the chat TUI style tokens.
type Theme struct {
	Name string

	Base   BaseColors
	Bubble BubbleColors
	Status StatusColors
	Chrome ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named theme, falling back to DefaultTheme.
func Lookup(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

// Muted renders secondary text.
func (t Theme) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// Accent renders highlighted text.
func (t Theme) Accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent)).Bold(true)
}

// Header renders the title bar.
func (t Theme) Header() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Header)).Bold(true)
}

// Footer renders the key hint bar.
func (t Theme) Footer() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Footer))
}

// Selected renders the highlighted list row.
func (t Theme) Selected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.SelectedItem)).Bold(true)
}

// Pending renders in-progress status text.
func (t Theme) Pending() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Status.Pending)).Italic(true)
}

// Error renders failure status text.
func (t Theme) Error() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Status.Error)).Bold(true)
}

package chattui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/thinkchat/internal/api"
	"github.com/tOgg1/thinkchat/internal/chattui/styles"
	"github.com/tOgg1/thinkchat/internal/models"
)

type conversationsMsg interface{ conversationsMsg() }

type childrenLoadedMsg struct {
	children []models.Conversation
	err      error
}

func (childrenLoadedMsg) conversationsMsg() {}

type conversationsView struct {
	ctx      context.Context
	source   Source
	items    []models.Conversation
	selected int
	loading  bool
	err      error
}

func newConversationsView(ctx context.Context, source Source) *conversationsView {
	return &conversationsView{ctx: ctx, source: source}
}

func (v *conversationsView) Init() tea.Cmd {
	v.loading = true
	return v.loadCmd()
}

func (v *conversationsView) loadCmd() tea.Cmd {
	ctx, source := v.ctx, v.source
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		children, err := source.ListChildren(reqCtx)
		return childrenLoadedMsg{children: children, err: err}
	}
}

func (v *conversationsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case childrenLoadedMsg:
		v.loading = false
		v.err = typed.err
		if typed.err == nil {
			v.items = typed.children
			v.selected = clampInt(v.selected, 0, maxInt(0, len(v.items)-1))
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *conversationsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		v.selected = clampInt(v.selected+1, 0, maxInt(0, len(v.items)-1))
	case "k", "up":
		v.selected = clampInt(v.selected-1, 0, maxInt(0, len(v.items)-1))
	case "g", "home":
		v.selected = 0
	case "G", "end":
		v.selected = maxInt(0, len(v.items)-1)
	case "r":
		v.loading = true
		return v.loadCmd()
	case "enter":
		if len(v.items) == 0 {
			return nil
		}
		return openThreadCmd(v.items[v.selected])
	}
	return nil
}

func (v *conversationsView) View(width, height int, theme styles.Theme) string {
	if height <= 0 {
		return ""
	}
	switch {
	case v.err != nil:
		return theme.Error().Render(describeLoadError("Could not load conversations", v.err))
	case v.loading && len(v.items) == 0:
		return theme.Muted().Render("Loading conversations...")
	case len(v.items) == 0:
		return theme.Muted().Render("No conversations yet")
	}

	top := 0
	if v.selected >= height {
		top = v.selected - height + 1
	}
	lines := make([]string, 0, height)
	for i := top; i < len(v.items) && len(lines) < height; i++ {
		conv := v.items[i]
		row := "  " + conv.Initial() + "  " + conv.DisplayName()
		if i == v.selected {
			row = theme.Selected().Render("> " + conv.Initial() + "  " + conv.DisplayName())
		}
		lines = append(lines, truncateVis(row, width))
	}
	return strings.Join(lines, "\n")
}

func describeLoadError(prefix string, err error) string {
	switch {
	case errors.Is(err, api.ErrMissingCredential):
		return "Not signed in. Run `thinkchat login` first."
	case api.IsUnauthorized(err):
		return "Your session has expired. Run `thinkchat login` again."
	default:
		return prefix + ": " + err.Error()
	}
}

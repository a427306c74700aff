package chattui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/thinkchat/internal/api"
	"github.com/tOgg1/thinkchat/internal/chattui/styles"
	"github.com/tOgg1/thinkchat/internal/conversation"
	"github.com/tOgg1/thinkchat/internal/models"
	"github.com/tOgg1/thinkchat/internal/timeline"
)

const composerPrompt = "> "

type threadMsg interface{ threadMsg() }

type snapshotMsg struct {
	gen  int
	snap conversation.Snapshot
}

type reconciledMsg struct {
	gen int
	err error
}

type refreshTickMsg struct {
	gen int
}

type sendResultMsg struct {
	gen int
	err error
}

func (snapshotMsg) threadMsg()    {}
func (reconciledMsg) threadMsg()  {}
func (refreshTickMsg) threadMsg() {}
func (sendResultMsg) threadMsg()  {}

type threadOptions struct {
	refresh     time.Duration
	clockFormat string
	location    *time.Location
	// forget drops cached conversation state once the session is no longer
	// valid, so the next open starts from a fresh fetch.
	forget func(conversationID string)
}

type threadView struct {
	ctx  context.Context
	opts threadOptions

	coord       *conversation.Coordinator
	conv        models.Conversation
	gen         int
	updates     <-chan conversation.Snapshot
	unsubscribe func()

	snap    conversation.Snapshot
	draft   string
	loading bool
	loadErr error
	scroll  int
}

func newThreadView(ctx context.Context, opts threadOptions) *threadView {
	return &threadView{ctx: ctx, opts: opts}
}

func (v *threadView) Init() tea.Cmd { return nil }

// Open switches the view to coord and starts loading and refreshing it.
func (v *threadView) Open(coord *conversation.Coordinator, conv models.Conversation) tea.Cmd {
	v.Close()
	v.gen++
	v.coord = coord
	v.conv = conv
	v.updates, v.unsubscribe = coord.Subscribe()
	v.snap = coord.Snapshot()
	v.loading = true
	v.loadErr = nil
	v.scroll = 0
	v.draft = ""
	return tea.Batch(v.waitSnapshotCmd(), v.reconcileCmd(), v.tickCmd())
}

// Close stops the subscription. Pending sends keep running in the coordinator.
func (v *threadView) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.updates = nil
	v.gen++
}

func (v *threadView) waitSnapshotCmd() tea.Cmd {
	ch, gen := v.updates, v.gen
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{gen: gen, snap: snap}
	}
}

func (v *threadView) reconcileCmd() tea.Cmd {
	coord, gen, ctx := v.coord, v.gen, v.ctx
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return reconciledMsg{gen: gen, err: coord.Reconcile(reqCtx)}
	}
}

func (v *threadView) tickCmd() tea.Cmd {
	gen := v.gen
	return tea.Tick(v.opts.refresh, func(time.Time) tea.Msg {
		return refreshTickMsg{gen: gen}
	})
}

func (v *threadView) dispatchCmd(p *conversation.PendingSend) tea.Cmd {
	coord, gen, ctx := v.coord, v.gen, v.ctx
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		_, err := coord.Dispatch(reqCtx, p)
		return sendResultMsg{gen: gen, err: err}
	}
}

func (v *threadView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case snapshotMsg:
		if typed.gen != v.gen {
			return nil
		}
		v.snap = typed.snap
		return v.waitSnapshotCmd()
	case reconciledMsg:
		if typed.gen != v.gen {
			return nil
		}
		v.loading = false
		switch {
		case typed.err == nil:
			v.loadErr = nil
		case errors.Is(typed.err, conversation.ErrStaleFetch), errors.Is(typed.err, context.Canceled):
		default:
			v.loadErr = typed.err
			if signedOut(typed.err) && v.opts.forget != nil {
				v.opts.forget(v.coord.ID())
			}
		}
		v.snap = v.coord.Snapshot()
		return nil
	case refreshTickMsg:
		if typed.gen != v.gen || v.coord == nil {
			return nil
		}
		return tea.Batch(v.reconcileCmd(), v.tickCmd())
	case sendResultMsg:
		if typed.gen != v.gen {
			return nil
		}
		v.snap = v.coord.Snapshot()
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *threadView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return popViewCmd()
	case "enter":
		return v.submit()
	case "backspace", "ctrl+h":
		if runes := []rune(v.draft); len(runes) > 0 {
			v.draft = string(runes[:len(runes)-1])
		}
		return nil
	case "ctrl+u":
		v.draft = ""
		return nil
	case "pgup":
		v.scroll += 5
		return nil
	case "pgdown":
		v.scroll = maxInt(0, v.scroll-5)
		return nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		v.draft += string(msg.Runes)
	case tea.KeySpace:
		v.draft += " "
	}
	return nil
}

// submit appends the draft optimistically and returns the command that
// delivers it. Nothing is sent while another send is pending.
func (v *threadView) submit() tea.Cmd {
	if v.coord == nil || strings.TrimSpace(v.draft) == "" {
		return nil
	}
	pending, err := v.coord.Submit(v.draft)
	if err != nil {
		return nil
	}
	v.draft = ""
	v.scroll = 0
	v.snap = v.coord.Snapshot()
	return v.dispatchCmd(pending)
}

func (v *threadView) View(width, height int, theme styles.Theme) string {
	if height <= 0 {
		return ""
	}
	composer := v.renderComposer(width, theme)
	bodyHeight := maxInt(0, height-lipgloss.Height(composer))
	return lipgloss.JoinVertical(lipgloss.Left, v.renderMessages(width, bodyHeight, theme), composer)
}

func (v *threadView) renderMessages(width, height int, theme styles.Theme) string {
	var lines []string
	if v.loadErr != nil {
		lines = append(lines, theme.Error().Render(truncateVis(describeLoadError("Could not load messages", v.loadErr), width)))
	}
	switch {
	case v.loading && len(v.snap.Messages) == 0:
		lines = append(lines, theme.Muted().Render("Loading messages..."))
	case len(v.snap.Messages) == 0:
		lines = append(lines, theme.Muted().Render("No messages yet. Say hello!"))
	default:
		lines = append(lines, v.renderBubbles(width, theme)...)
	}

	end := maxInt(0, len(lines)-v.scroll)
	start := maxInt(0, end-height)
	visible := lines[start:end]
	for len(visible) < height {
		visible = append([]string{""}, visible...)
	}
	return strings.Join(visible, "\n")
}

func (v *threadView) renderBubbles(width int, theme styles.Theme) []string {
	bubbleStyles := styles.NewBubbleStyles(theme)
	entries := v.coord.Annotate(v.snap)

	var lines []string
	for _, group := range timeline.Groups(entries) {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		for _, entry := range group.Entries {
			label := ""
			if entry.ShowTimestamp {
				label = timeline.Label(entry.Message.CreatedAt, v.opts.clockFormat, v.opts.location)
			}
			rendered := bubbleStyles.Render(styles.Bubble{
				Text:        entry.Message.Text,
				Own:         entry.Message.FromSelf(),
				Provisional: entry.Message.IsProvisional(),
				Label:       label,
			}, width)
			lines = append(lines, strings.Split(rendered, "\n")...)
		}
	}
	return lines
}

func signedOut(err error) bool {
	return errors.Is(err, api.ErrMissingCredential) || api.IsUnauthorized(err)
}

func (v *threadView) renderComposer(width int, theme styles.Theme) string {
	status := ""
	switch {
	case v.snap.Sending():
		status = theme.Pending().Render("Sending...")
	case v.snap.SendErr != nil:
		status = theme.Error().Render("Failed to send: " + v.snap.SendErr.Error())
	}
	input := composerPrompt + v.draft + "█"
	if status == "" {
		return truncateVis(input, width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, truncateVis(status, width), truncateVis(input, width))
}

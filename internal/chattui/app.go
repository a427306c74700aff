// Package chattui is the terminal interface for reading and sending messages.
package chattui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/tOgg1/thinkchat/internal/chattui/styles"
	"github.com/tOgg1/thinkchat/internal/conversation"
	"github.com/tOgg1/thinkchat/internal/models"
	"github.com/tOgg1/thinkchat/internal/timeline"
)

const (
	defaultRefreshInterval = 5 * time.Second
	requestTimeout         = 20 * time.Second
)

type ViewID string

const (
	ViewConversations ViewID = "conversations"
	ViewThread        ViewID = "thread"
)

// Source is the data the TUI needs from the API.
type Source interface {
	conversation.Remote
	ListChildren(ctx context.Context) ([]models.Conversation, error)
}

type Config struct {
	Source          Source
	Theme           string
	RefreshInterval time.Duration
	GroupWindow     time.Duration
	ClockFormat     string
	Location        *time.Location

	// InitialConversation opens straight into a thread when set.
	InitialConversation string
	Now                 func() time.Time
}

type Model struct {
	source   Source
	hub      *conversation.Hub
	theme    styles.Theme
	cfg      Config
	baseCtx  context.Context
	cancel   context.CancelFunc
	width    int
	height   int
	showHelp bool

	viewStack []ViewID
	convs     *conversationsView
	thread    *threadView
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme styles.Theme) string
}

type popViewMsg struct{}

type openThreadMsg struct {
	conv models.Conversation
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

func openThreadCmd(conv models.Conversation) tea.Cmd {
	return func() tea.Msg {
		return openThreadMsg{conv: conv}
	}
}

func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx, cancel := context.WithCancel(ctx)

	hub := conversation.NewHub(normalized.Source, conversation.Options{
		Now:         normalized.Now,
		GroupWindow: normalized.GroupWindow,
	})
	m := &Model{
		source:    normalized.Source,
		hub:       hub,
		theme:     styles.Lookup(normalized.Theme),
		cfg:       normalized,
		baseCtx:   baseCtx,
		cancel:    cancel,
		viewStack: []ViewID{ViewConversations},
	}
	m.convs = newConversationsView(baseCtx, normalized.Source)
	m.thread = newThreadView(baseCtx, threadOptions{
		refresh:     normalized.RefreshInterval,
		clockFormat: normalized.ClockFormat,
		location:    normalized.Location,
		forget:      hub.Forget,
	})
	return m, nil
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	model, err := NewModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

func (m *Model) Close() error {
	if m == nil {
		return nil
	}
	m.thread.Close()
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.convs.Init()}
	if id := m.cfg.InitialConversation; id != "" {
		cmds = append(cmds, openThreadCmd(models.Conversation{ID: id}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case childrenLoadedMsg:
		// Fill in the header name when the thread was opened by id.
		cmd := m.convs.Update(msg)
		if m.thread.conv.FirstName == "" && m.thread.conv.LastName == "" {
			for _, conv := range typed.children {
				if conv.ID == m.thread.conv.ID {
					m.thread.conv = conv
				}
			}
		}
		return m, cmd
	case openThreadMsg:
		m.pushView(ViewThread)
		return m, m.thread.Open(m.hub.Get(typed.conv.ID), typed.conv)
	case popViewMsg:
		if m.activeViewID() == ViewThread {
			m.thread.Close()
		}
		m.popView()
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	switch msg.(type) {
	case threadMsg:
		return m, m.thread.Update(msg)
	case conversationsMsg:
		return m, m.convs.Update(msg)
	}
	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	if m.showHelp {
		body = m.renderHelp()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "q":
		// q is text in the composer.
		if m.activeViewID() == ViewThread {
			return nil, false
		}
		return tea.Quit, true
	case "?":
		if m.activeViewID() == ViewThread {
			return nil, false
		}
		m.showHelp = !m.showHelp
		return nil, true
	}
	return nil, false
}

func (m *Model) activeView() viewModel {
	switch m.activeViewID() {
	case ViewThread:
		return m.thread
	default:
		return m.convs
	}
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewConversations
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" || m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) <= 1 {
		return
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}

func (m *Model) renderHeader() string {
	title := "ThinkChat"
	if m.activeViewID() == ViewThread {
		title = title + "  /  " + m.thread.conv.DisplayName()
	}
	return truncateVis(m.theme.Header().Render(title), m.width)
}

func (m *Model) renderFooter() string {
	hint := "j/k move  enter open  r refresh  ? help  q quit"
	if m.activeViewID() == ViewThread {
		hint = "enter send  esc back  ctrl+c quit"
	}
	return truncateVis(m.theme.Footer().Render(hint), m.width)
}

func (m *Model) renderHelp() string {
	lines := []string{
		"Conversations",
		"  j/k, up/down  move",
		"  enter         open conversation",
		"  r             refresh",
		"",
		"Conversation",
		"  type          compose",
		"  enter         send",
		"  esc           back",
	}
	return strings.Join(lines, "\n")
}

func (c Config) normalize() (Config, error) {
	if c.Source == nil {
		return Config{}, fmt.Errorf("tui requires a data source")
	}
	c.InitialConversation = strings.TrimSpace(c.InitialConversation)
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.GroupWindow <= 0 {
		c.GroupWindow = timeline.DefaultGroupWindow
	}
	if strings.TrimSpace(c.ClockFormat) == "" {
		c.ClockFormat = timeline.DefaultClockFormat
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = "default"
	}
	if _, ok := styles.Themes[c.Theme]; !ok {
		return Config{}, fmt.Errorf("invalid theme %q", c.Theme)
	}
	return c, nil
}

func truncateVis(s string, max int) string {
	if max <= 0 || lipgloss.Width(s) <= max {
		return s
	}
	return truncate.String(s, uint(max))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

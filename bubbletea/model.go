package bubbletea

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/markdown"
)

const ioTimeout = 15 * time.Second

var _ tea.Model = Model{}

// Model is the Bubble Tea model for a parley session.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model

	controller *parley.Controller
	open       OpenTransportFunc
	theme      parley.Theme
	styles     Styles

	events   <-chan parley.Event
	notice   string
	clearing bool
	ready    bool
}

// New creates a TUI Model for the given controller. The open function is
// called once, after history loading settles, to construct the transport.
func New(controller *parley.Controller, open OpenTransportFunc, theme parley.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:      ti,
		controller: controller,
		open:       open,
		theme:      theme,
		styles:     NewStyles(theme),
	}
}

// Controller returns the session controller. Exported for test access.
func (m Model) Controller() *parley.Controller { return m.controller }

// Notice returns the current transient status notice, if any.
func (m Model) Notice() string { return m.notice }

// Init implements tea.Model. It starts the history fetch; the transport is
// opened only once the fetch settles.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadHistory(m.controller))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case SessionEventMsg:
		m.controller.Apply(msg.Event)
		m = m.refresh()
		if m.events == nil {
			return m, nil
		}
		return m, listenForEvent(m.events)

	case TransportDoneMsg:
		m.events = nil
		return m, nil

	case SendResultMsg:
		if msg.Err != nil {
			m.controller.SendFailed(msg.Err)
			m = m.refresh()
		}
		return m, nil

	case ClearResultMsg:
		m.clearing = false
		if msg.Err != nil {
			// Local state stays untouched on server failure.
			m.notice = "clear failed: " + msg.Err.Error()
		} else {
			m.controller.ApplyClear()
			m.notice = ""
		}
		return m, nil
	}

	// Pass remaining messages to sub-components. The viewport always
	// receives messages for scrolling (keyboard and mouse).
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.controller.Streaming() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputHeight := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputHeight - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.controller.Teardown()
		return m, tea.Quit

	case tea.KeyEnter:
		turn, err := m.controller.Submit(m.Input.Value())
		if err != nil {
			// Empty input, not connected, or a response is already
			// outstanding: no state change, nothing is sent.
			return m, nil
		}
		m.Input.SetValue("")
		m.notice = ""
		m = m.refresh()
		return m, sendTurn(m.controller.Transport(), turn.Content)

	case tea.KeyCtrlL:
		if m.clearing {
			return m, nil
		}
		m.clearing = true
		return m, clearHistory(m.controller)
	}

	// When not streaming, keys go to both the input (typing) and the
	// viewport (scrolling). Only non-character keys reach the viewport to
	// avoid conflicts ('j'/'k' are viewport scroll AND text characters).
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !m.controller.Streaming() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// A history outage must not block the ability to chat.
		m.notice = "history unavailable: " + msg.Err.Error()
	} else {
		m.controller.SeedHistory(msg.Turns)
	}

	transport := m.open()
	m.controller.Attach(transport)
	m.events = transport.Events()
	m = m.refresh()
	return m, listenForEvent(m.events)
}

// refresh re-renders the transcript and keeps the viewport pinned to the
// latest turn.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	turns := m.controller.Store().Turns()
	if len(turns) == 0 {
		return m.styles.Muted.Render("No messages yet.")
	}

	width := m.Viewport.Width
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch t := turn.(type) {
		case parley.UserTurn:
			content := m.styles.UserMsg.Render("> ") + t.Content
			b.WriteString(lipgloss.NewStyle().Width(width).Render(content))
		case parley.AssistantTurn:
			if t.Failed {
				b.WriteString(lipgloss.NewStyle().Width(width).Render(m.styles.Error.Render(t.Content)))
			} else {
				b.WriteString(markdown.Render(t.Content, width, m.theme))
			}
		case parley.PendingTurn:
			b.WriteString(markdown.Render(t.Accumulated, width, m.theme))
			b.WriteString(m.styles.Muted.Render("▌"))
		}
	}
	return b.String()
}

func (m Model) statusLine() string {
	if m.notice != "" {
		return m.styles.Error.Render(m.notice)
	}
	if m.clearing {
		return m.styles.Muted.Render("Clearing history...")
	}
	switch m.controller.State() {
	case parley.Connecting:
		return m.styles.Muted.Render("Connecting...")
	case parley.ConnectedStreaming:
		return m.styles.Muted.Render("Thinking...")
	case parley.ConnectedIdle:
		return m.styles.Success.Render("● ") +
			m.styles.Muted.Render("Enter to send · Ctrl+L to clear history · Ctrl+C to quit")
	default:
		return m.styles.Error.Render("● ") + m.styles.Muted.Render("Offline · retrying...")
	}
}

// loadHistory performs the one-shot history fetch off the event loop.
func loadHistory(c *parley.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		turns, err := c.LoadHistory(ctx)
		return HistoryLoadedMsg{Turns: turns, Err: err}
	}
}

// sendTurn transmits an already-appended user turn over the transport.
func sendTurn(transport parley.Transport, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		return SendResultMsg{Err: transport.Send(ctx, text)}
	}
}

// clearHistory asks the server to delete the session's history. The store
// is cleared only from the success branch of ClearResultMsg.
func clearHistory(c *parley.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		return ClearResultMsg{Err: c.ClearHistory(ctx)}
	}
}

// listenForEvent waits for the next transport event. When the channel
// closes, it reports TransportDoneMsg.
func listenForEvent(ch <-chan parley.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return TransportDoneMsg{}
		}
		return SessionEventMsg{Event: evt}
	}
}

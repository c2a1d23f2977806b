// Package bubbletea provides the Bubble Tea TUI for a parley session.
//
// The Update loop is the session's single-threaded event loop: every
// session event and user intent is applied to completion before the next,
// which is what guarantees fragments land in arrival order. Blocking work
// (history fetch, sends, history clear) runs in commands and reports back
// as messages; store mutation only ever happens inside Update.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/parleyhq/parley"
)

// OpenTransportFunc constructs the session's transport. It is invoked only
// after history loading has completed or failed, never before, so no live
// event can race the initial history population.
type OpenTransportFunc func() parley.Transport

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. The context is used for graceful shutdown: when
// cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// HistoryLoadedMsg delivers the one-shot history fetch result.
type HistoryLoadedMsg struct {
	Turns []parley.Turn
	Err   error
}

// SessionEventMsg wraps a transport event for delivery to the model.
type SessionEventMsg struct {
	Event parley.Event
}

// TransportDoneMsg signals that the transport's event channel closed,
// i.e. the session was torn down.
type TransportDoneMsg struct{}

// SendResultMsg delivers the outcome of transmitting a user turn.
type SendResultMsg struct {
	Err error
}

// ClearResultMsg delivers the outcome of the server-side history clear.
type ClearResultMsg struct {
	Err error
}

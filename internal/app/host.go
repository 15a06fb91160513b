package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/olivoil/codeflow/tui/internal/channel"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/status"
)

// eventHost collects the adapter's actions for one event so they run in the
// order the adapter issued them.
type eventHost struct {
	m      *model
	reason string
	cmds   []tea.Cmd
}

var _ channel.Host = (*eventHost)(nil)

func (h *eventHost) RequestRefetch() {
	h.cmds = append(h.cmds, h.m.refetch(h.reason))
	if h.m.route.Kind == routes.ProjectList {
		h.cmds = append(h.cmds, h.m.loadAllProjects())
	}
}

func (h *eventHost) SetStatus(msg string, sev status.Severity) {
	h.m.status.SetConnectionHeader(status.Message{Text: msg, Severity: sev})
}

// handleEvent feeds ev to the adapter. A status change is an input change for
// the session machine, so the state is re-applied.
func (m model) handleEvent(ev channel.Event) (model, tea.Cmd) {
	h := &eventHost{m: &m, reason: string(ev)}
	prev := m.adapter.Status()
	next := m.adapter.Handle(ev, h)

	m.metrics.Event(string(ev))
	if next != prev {
		m.metrics.Connected(next == channel.Connected)
		if cmd := m.reconcile(); cmd != nil {
			h.cmds = append(h.cmds, cmd)
		}
	}
	return m, tea.Batch(h.cmds...)
}

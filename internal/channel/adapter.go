// Package channel bridges the realtime event source into the UI: lifecycle
// events become connection status changes, refetch requests and status
// messages.
package channel

import (
	"fmt"
	"log/slog"

	"github.com/olivoil/codeflow/tui/internal/status"
)

// ReconnectingMessage is shown while the transport is re-dialing.
const ReconnectingMessage = "Attempting to reconnect to server..."

// Status is the connection status owned by the host.
type Status int

const (
	Idle Status = iota
	Reconnecting
	ReconnectFailed
	Connected
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reconnecting:
		return "reconnecting"
	case ReconnectFailed:
		return "reconnect failed"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Event is a named realtime event.
type Event string

const (
	EventReconnect       Event = "reconnect"
	EventReconnecting    Event = "reconnecting"
	EventReconnectFailed Event = "reconnect_failed"
	// EventProjects is the generic "something changed" push.
	EventProjects Event = "projects"
)

// ParseEvent maps a wire name to an Event.
func ParseEvent(name string) (Event, bool) {
	switch e := Event(name); e {
	case EventReconnect, EventReconnecting, EventReconnectFailed, EventProjects:
		return e, true
	}
	return "", false
}

// Host receives the adapter's actions.
type Host interface {
	RequestRefetch()
	SetStatus(msg string, sev status.Severity)
}

// Adapter owns the connection status and turns events into host actions.
// It is not safe for concurrent use; call Handle from the UI loop only.
type Adapter struct {
	status Status
	logger *slog.Logger
}

// NewAdapter creates an adapter in the Idle state.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{status: Idle, logger: logger}
}

// Status returns the current connection status.
func (a *Adapter) Status() Status { return a.status }

// Handle applies one event. It never panics: a panicking host is logged and
// the status transition is kept.
func (a *Adapter) Handle(ev Event, host Host) (next Status) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("channel handler panicked", "event", string(ev), "panic", r)
			next = a.status
		}
	}()

	prev := a.status
	switch ev {
	case EventReconnectFailed:
		// No user-facing action is defined; the gap stays visible in the status only.
		a.status = ReconnectFailed
		a.logger.Warn("realtime channel gave up reconnecting")

	case EventReconnecting:
		a.status = Reconnecting
		host.SetStatus(ReconnectingMessage, status.Fail)

	case EventReconnect:
		a.status = Connected
		host.RequestRefetch()
		host.SetStatus("", status.Success)

	case EventProjects:
		host.RequestRefetch()

	default:
		a.logger.Debug("ignoring unknown channel event", "event", string(ev))
	}

	if prev != a.status {
		a.logger.Info("channel status changed", "from", prev.String(), "to", a.status.String())
	}
	return a.status
}

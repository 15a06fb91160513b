package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/codeflow/tui/internal/status"
)

type call struct {
	kind string
	msg  string
	sev  status.Severity
}

type recordingHost struct {
	calls []call
}

func (h *recordingHost) RequestRefetch() { h.calls = append(h.calls, call{kind: "refetch"}) }

func (h *recordingHost) SetStatus(msg string, sev status.Severity) {
	h.calls = append(h.calls, call{kind: "status", msg: msg, sev: sev})
}

func (h *recordingHost) refetches() int {
	n := 0
	for _, c := range h.calls {
		if c.kind == "refetch" {
			n++
		}
	}
	return n
}

type panickyHost struct{}

func (panickyHost) RequestRefetch()                   { panic("boom") }
func (panickyHost) SetStatus(string, status.Severity) { panic("boom") }

func TestAdapter_InitialIdle(t *testing.T) {
	assert.Equal(t, Idle, NewAdapter(nil).Status())
}

func TestAdapter_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   Status
	}{
		{"connect failed from idle", []Event{EventReconnectFailed}, ReconnectFailed},
		{"reconnecting from idle", []Event{EventReconnecting}, Reconnecting},
		{"reconnected", []Event{EventReconnecting, EventReconnect}, Connected},
		{"failed then recovered", []Event{EventReconnecting, EventReconnectFailed, EventReconnecting, EventReconnect}, Connected},
		{"push keeps status", []Event{EventReconnecting, EventProjects}, Reconnecting},
		{"connected then dropped", []Event{EventReconnecting, EventReconnect, EventReconnecting}, Reconnecting},
		{"unknown event ignored", []Event{Event("bogus")}, Idle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(nil)
			h := &recordingHost{}
			for _, ev := range tt.events {
				a.Handle(ev, h)
			}
			assert.Equal(t, tt.want, a.Status())
		})
	}
}

func TestAdapter_ReconnectScenario(t *testing.T) {
	a := NewAdapter(nil)
	h := &recordingHost{}

	a.Handle(EventReconnecting, h)
	require.Equal(t, []call{{kind: "status", msg: ReconnectingMessage, sev: status.Fail}}, h.calls)
	assert.Zero(t, h.refetches(), "no refetch while reconnecting")

	a.Handle(EventReconnect, h)
	assert.Equal(t, []call{
		{kind: "status", msg: ReconnectingMessage, sev: status.Fail},
		{kind: "refetch"},
		{kind: "status", msg: "", sev: status.Success},
	}, h.calls)
	assert.Equal(t, 1, h.refetches())
}

func TestAdapter_DuplicateReconnectingIsIdempotent(t *testing.T) {
	a := NewAdapter(nil)
	h := &recordingHost{}
	a.Handle(EventReconnecting, h)
	a.Handle(EventReconnecting, h)

	assert.Equal(t, Reconnecting, a.Status())
	require.Len(t, h.calls, 2)
	assert.Equal(t, h.calls[0], h.calls[1])
}

func TestAdapter_ProjectsPushEveryEventRefetches(t *testing.T) {
	a := NewAdapter(nil)
	h := &recordingHost{}
	a.Handle(EventProjects, h)
	a.Handle(EventProjects, h)
	assert.Equal(t, 2, h.refetches())
	assert.Equal(t, Idle, a.Status())
}

func TestAdapter_ReconnectFailedHasNoAction(t *testing.T) {
	a := NewAdapter(nil)
	h := &recordingHost{}
	a.Handle(EventReconnectFailed, h)
	assert.Empty(t, h.calls)
}

func TestAdapter_NeverPanics(t *testing.T) {
	a := NewAdapter(nil)
	assert.NotPanics(t, func() {
		got := a.Handle(EventReconnect, panickyHost{})
		assert.Equal(t, Connected, got)
	})
	assert.NotPanics(t, func() { a.Handle(EventReconnecting, panickyHost{}) })
	assert.Equal(t, Reconnecting, a.Status())
}

func TestParseEvent(t *testing.T) {
	for _, name := range []string{"reconnect", "reconnecting", "reconnect_failed", "projects"} {
		ev, ok := ParseEvent(name)
		assert.True(t, ok, name)
		assert.Equal(t, Event(name), ev)
	}
	_, ok := ParseEvent("connect")
	assert.False(t, ok)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "reconnecting", Reconnecting.String())
	assert.Equal(t, "reconnect failed", ReconnectFailed.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "status(9)", Status(9).String())
}

package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newEventLog() *eventLog { return &eventLog{ch: make(chan Event, 64)} }

func (l *eventLog) emit(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	l.ch <- ev
}

func (l *eventLog) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-l.ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return ""
}

// newPushServer accepts websocket clients; the first connection receives the
// given frames and is then dropped, later connections stay open.
func newPushServer(t *testing.T, frames ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "invalid access token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)
		if n == 1 {
			for _, f := range frames {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
					return
				}
			}
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &conns
}

func authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer tok")
	return h
}

func TestWSTransport_PushThenReconnect(t *testing.T) {
	ts, conns := newPushServer(t,
		`{"event": "projects", "data": {"slug": "a"}}`,
		`not json`,
		`{"event": "deploys"}`,
		`{"event": "reconnect"}`,
		`{"event": "projects"}`,
	)

	tr := NewWSTransport(WSConfig{
		URL:            wsURL(ts.URL),
		Header:         authHeader,
		ReconnectDelay: 10 * time.Millisecond,
	})
	log := newEventLog()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- tr.Run(ctx, log.emit) }()

	assert.Equal(t, EventProjects, log.next(t))
	assert.Equal(t, EventProjects, log.next(t))
	assert.Equal(t, EventReconnecting, log.next(t))
	assert.Equal(t, EventReconnect, log.next(t))
	assert.GreaterOrEqual(t, conns.Load(), int32(2))

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWSTransport_ReconnectFailed(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(ts.URL)
	ts.Close()

	tr := NewWSTransport(WSConfig{
		URL:               url,
		ReconnectAttempts: 3,
		ReconnectDelay:    time.Millisecond,
		ReconnectDelayMax: 2 * time.Millisecond,
	})
	log := newEventLog()
	err := tr.Run(context.Background(), log.emit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReconnectFailed))

	assert.Equal(t, []Event{EventReconnecting, EventReconnecting, EventReconnectFailed}, log.events)
}

func TestWSTransport_CancelWhileBackingOff(t *testing.T) {
	ts, _ := newPushServer(t)
	tr := NewWSTransport(WSConfig{
		URL:            wsURL(ts.URL),
		Header:         func() http.Header { return nil }, // rejected: no token
		ReconnectDelay: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- tr.Run(ctx, func(Event) {}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewWSTransport_Defaults(t *testing.T) {
	tr := NewWSTransport(WSConfig{URL: "ws://example.invalid"})
	assert.Equal(t, defaultReconnectDelay, tr.cfg.ReconnectDelay)
	assert.Equal(t, defaultReconnectDelayMax, tr.cfg.ReconnectDelayMax)
	assert.Equal(t, defaultPingInterval, tr.cfg.PingInterval)
	assert.NotNil(t, tr.cfg.Dialer)

	tr = NewWSTransport(WSConfig{ReconnectDelay: 10 * time.Second})
	assert.Equal(t, 10*time.Second, tr.cfg.ReconnectDelayMax)
}

// --- Channel ---

type scriptedTransport struct {
	events []Event
	err    error
	block  bool
}

func (s scriptedTransport) Run(ctx context.Context, emit func(Event)) error {
	for _, ev := range s.events {
		emit(ev)
	}
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.err
}

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func recv(t *testing.T, ch chanSender) tea.Msg {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestChannel_ForwardsEventsInOrder(t *testing.T) {
	c := New(scriptedTransport{events: []Event{EventProjects, EventReconnecting, EventReconnect}, block: true}, nil)
	sender := make(chanSender, 8)

	require.NoError(t, c.Open(context.Background(), sender))
	assert.True(t, c.IsOpen())
	assert.ErrorIs(t, c.Open(context.Background(), sender), ErrAlreadyOpen)

	assert.Equal(t, EventMsg{Event: EventProjects}, recv(t, sender))
	assert.Equal(t, EventMsg{Event: EventReconnecting}, recv(t, sender))
	assert.Equal(t, EventMsg{Event: EventReconnect}, recv(t, sender))

	require.NoError(t, c.Close())
	assert.False(t, c.IsOpen())
	require.NoError(t, c.Close(), "second close is a no-op")

	select {
	case m := <-sender:
		t.Fatalf("unexpected message after close: %#v", m)
	default:
	}
}

func TestChannel_ReportsTransportStop(t *testing.T) {
	c := New(scriptedTransport{events: []Event{EventReconnectFailed}, err: ErrReconnectFailed}, nil)
	sender := make(chanSender, 8)
	require.NoError(t, c.Open(context.Background(), sender))

	assert.Equal(t, EventMsg{Event: EventReconnectFailed}, recv(t, sender))
	closed, ok := recv(t, sender).(ClosedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, closed.Err, ErrReconnectFailed)

	require.NoError(t, c.Close())
}

func TestChannel_ReopenAfterClose(t *testing.T) {
	c := New(scriptedTransport{block: true}, nil)
	sender := make(chanSender, 8)
	require.NoError(t, c.Open(context.Background(), sender))
	require.NoError(t, c.Close())
	require.NoError(t, c.Open(context.Background(), sender))
	require.NoError(t, c.Close())
}

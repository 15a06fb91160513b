package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tea "charm.land/bubbletea/v2"
)

// EventMsg carries one realtime event onto the UI loop.
type EventMsg struct {
	Event Event
}

// ClosedMsg is sent once the transport stops on its own (e.g. after
// reconnect_failed). Err is nil when the channel was closed on purpose.
type ClosedMsg struct {
	Err error
}

// Sender can receive messages (matches *tea.Program).
type Sender interface {
	Send(msg tea.Msg)
}

// ErrAlreadyOpen is returned by Open on an open channel.
var ErrAlreadyOpen = errors.New("channel already open")

// Channel is an explicitly owned handle on a transport: Open at session start,
// Close on logout or teardown. Events are forwarded to the Sender so handlers
// run on the UI loop in delivery order.
type Channel struct {
	transport Transport
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a closed channel over t.
func New(t Transport, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{transport: t, logger: logger}
}

// Open starts the transport in the background.
func (c *Channel) Open(ctx context.Context, sender Sender) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return ErrAlreadyOpen
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		err := c.transport.Run(ctx, func(ev Event) {
			sender.Send(EventMsg{Event: ev})
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Error("realtime channel stopped", "error", err)
		}
		sender.Send(ClosedMsg{Err: err})
	}()
	return nil
}

// IsOpen reports whether Open was called without a matching Close.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Close stops the transport and waits for it to return. Closing a closed
// channel is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

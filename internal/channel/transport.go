package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

// Transport is a realtime event source. Run blocks until ctx is done or the
// transport gives up, delivering events in order through emit.
type Transport interface {
	Run(ctx context.Context, emit func(Event)) error
}

// ErrReconnectFailed is returned by WSTransport.Run after the last attempt.
var ErrReconnectFailed = errors.New("realtime channel: reconnect attempts exhausted")

// WSConfig configures a WSTransport.
type WSConfig struct {
	URL string
	// Header is called before every dial so a refreshed token is picked up.
	Header func() http.Header
	// ReconnectAttempts is the number of consecutive failed dials before
	// reconnect_failed is emitted. Zero retries forever.
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	PingInterval      time.Duration
	Dialer            *websocket.Dialer
	Logger            *slog.Logger
}

const (
	defaultReconnectDelay    = time.Second
	defaultReconnectDelayMax = 5 * time.Second
	defaultPingInterval      = 25 * time.Second
	writeWait                = 10 * time.Second
)

// frame is one server push: {"event": "projects", "data": ...}.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WSTransport is a websocket event source with automatic reconnection.
// Lifecycle events (reconnecting, reconnect, reconnect_failed) are synthesized
// from dial results; application events come from server frames.
type WSTransport struct {
	cfg WSConfig
}

// NewWSTransport applies defaults to cfg.
func NewWSTransport(cfg WSConfig) *WSTransport {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.ReconnectDelayMax < cfg.ReconnectDelay {
		cfg.ReconnectDelayMax = defaultReconnectDelayMax
		if cfg.ReconnectDelayMax < cfg.ReconnectDelay {
			cfg.ReconnectDelayMax = cfg.ReconnectDelay
		}
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &WSTransport{cfg: cfg}
}

// Run dials and reads until ctx is done. The first successful connection is
// silent; every later one after a drop or failed dial emits reconnect.
func (t *WSTransport) Run(ctx context.Context, emit func(Event)) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.ReconnectDelay
	b.MaxInterval = t.cfg.ReconnectDelayMax
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.Reset()

	log := t.cfg.Logger.With("url", t.cfg.URL)
	reconnecting := false
	failures := 0

	for {
		if reconnecting {
			emit(EventReconnecting)
		}

		conn, err := t.dial(ctx)
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return nil
		}
		if err != nil {
			failures++
			log.Warn("realtime dial failed", "attempt", failures, "error", err)
			if t.cfg.ReconnectAttempts > 0 && failures >= t.cfg.ReconnectAttempts {
				emit(EventReconnectFailed)
				return fmt.Errorf("%w: %v", ErrReconnectFailed, err)
			}
			reconnecting = true
			if !sleep(ctx, b.NextBackOff()) {
				return nil
			}
			continue
		}

		failures = 0
		b.Reset()
		if reconnecting {
			emit(EventReconnect)
		}
		reconnecting = false
		log.Info("realtime channel connected")

		err = t.read(ctx, conn, emit)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("realtime channel dropped", "error", err)
		reconnecting = true
		if !sleep(ctx, b.NextBackOff()) {
			return nil
		}
	}
}

func (t *WSTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	var h http.Header
	if t.cfg.Header != nil {
		h = t.cfg.Header()
	}
	conn, resp, err := t.cfg.Dialer.DialContext(ctx, t.cfg.URL, h)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// read pumps frames until the connection fails or ctx is done. The connection
// is always closed on return.
func (t *WSTransport) read(ctx context.Context, conn *websocket.Conn, emit func(Event)) error {
	done := make(chan struct{})
	defer close(done)

	pongWait := 2 * t.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(t.cfg.PingInterval)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.cfg.Logger.Debug("skipping malformed realtime frame", "error", err)
			continue
		}
		ev, ok := ParseEvent(f.Event)
		if !ok || ev != EventProjects {
			// Lifecycle events are ours to synthesize; anything else is not ours to interpret.
			t.cfg.Logger.Debug("ignoring realtime frame", "event", f.Event)
			continue
		}
		emit(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Package telemetry reports unrecoverable session errors to Sentry.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// Options configures the Sentry client. An empty DSN disables reporting.
type Options struct {
	DSN         string
	Environment string
	Release     string
	// BeforeSend lets callers inspect or drop events.
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// Reporter sends each distinct error once. The zero value and a Reporter
// built without a DSN only track what would have been sent.
type Reporter struct {
	hub *sentry.Hub

	mu   sync.Mutex
	seen map[string]struct{}
}

// New builds a Reporter with its own hub so tests never touch the global one.
func New(opts Options) (*Reporter, error) {
	r := &Reporter{seen: map[string]struct{}{}}
	if opts.DSN == "" {
		return r, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
		BeforeSend:  opts.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	r.hub = sentry.NewHub(client, sentry.NewScope())
	return r, nil
}

// Enabled reports whether events leave the process.
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// Report captures err with tags unless an error with the same text was
// already reported. It returns true when err was new.
func (r *Reporter) Report(err error, tags map[string]string) bool {
	if r == nil || err == nil {
		return false
	}
	key := err.Error()
	r.mu.Lock()
	if r.seen == nil {
		r.seen = map[string]struct{}{}
	}
	if _, ok := r.seen[key]; ok {
		r.mu.Unlock()
		return false
	}
	r.seen[key] = struct{}{}
	r.mu.Unlock()

	if r.hub == nil {
		return true
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		r.hub.CaptureException(err)
	})
	return true
}

// Flush waits up to timeout for queued events.
func (r *Reporter) Flush(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	r.hub.Flush(timeout)
}

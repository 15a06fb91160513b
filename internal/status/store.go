// Package status holds the process-wide UI status: the connection header shown
// in the top bar and the transient snackbar.
package status

import (
	"sync"
	"time"
)

// DefaultSnackbarDuration is how long a snackbar stays visible.
const DefaultSnackbarDuration = 2700 * time.Millisecond

// Severity is the tone of a status message.
type Severity int

const (
	Success Severity = iota
	Fail
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	}
	return "UNKNOWN"
}

// Message is a status line.
type Message struct {
	Text     string
	Severity Severity
}

// Empty reports whether there is nothing to show.
func (m Message) Empty() bool { return m.Text == "" }

// Store is safe for concurrent use; writers are the channel adapter and views,
// the reader is the root model's View.
type Store struct {
	mu       sync.RWMutex
	header   Message
	snack    Message
	snackID  uint64
	snackOn  bool
	duration time.Duration
}

// NewStore creates a store whose snackbars last d (DefaultSnackbarDuration if d <= 0).
func NewStore(d time.Duration) *Store {
	if d <= 0 {
		d = DefaultSnackbarDuration
	}
	return &Store{duration: d}
}

// SnackbarDuration returns the configured auto-hide duration.
func (s *Store) SnackbarDuration() time.Duration { return s.duration }

// SetConnectionHeader replaces the connection header. An empty text clears it.
func (s *Store) SetConnectionHeader(m Message) {
	s.mu.Lock()
	s.header = m
	s.mu.Unlock()
}

// ConnectionHeader returns the current connection header.
func (s *Store) ConnectionHeader() Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header
}

// ShowSnackbar opens the snackbar and returns its id. The caller schedules
// ExpireSnackbar(id) after SnackbarDuration.
func (s *Store) ShowSnackbar(text string, sev Severity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snackID++
	s.snack = Message{Text: text, Severity: sev}
	s.snackOn = true
	return s.snackID
}

// HideSnackbar closes the snackbar regardless of which one is showing.
func (s *Store) HideSnackbar() {
	s.mu.Lock()
	s.snackOn = false
	s.mu.Unlock()
}

// ExpireSnackbar closes the snackbar only if id is still the one showing.
// A newer snackbar keeps its own full duration.
func (s *Store) ExpireSnackbar(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snackOn || id != s.snackID {
		return false
	}
	s.snackOn = false
	return true
}

// Snackbar returns the snackbar message and whether it is open.
func (s *Store) Snackbar() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snack, s.snackOn
}

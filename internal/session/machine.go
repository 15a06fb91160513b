package session

import (
	"sync"

	"github.com/olivoil/codeflow/tui/internal/channel"
)

// Input is everything the session state depends on.
type Input struct {
	Query           QueryResult
	Conn            channel.Status
	RedirectToLogin bool
}

// Machine stores the session state and recomputes it once per input change.
// The host calls Apply whenever any input signal changes and renders from
// State; rendering never recomputes.
type Machine struct {
	in      Input
	state   State
	applied bool
}

// NewMachine starts in the pending (Loading) state.
func NewMachine() *Machine {
	m := &Machine{}
	m.Apply(Input{Query: Pending()})
	return m
}

// Apply stores in and the state derived from it. changed is true when the
// state kind or its payload differs from the previous one.
func (m *Machine) Apply(in Input) (state State, changed bool) {
	next := Reconcile(in.Query, in.Conn, in.RedirectToLogin)
	changed = !m.applied || !sameState(m.state, next)
	m.in = in
	m.state = next
	m.applied = true
	return next, changed
}

// State returns the stored state.
func (m *Machine) State() State { return m.state }

// Input returns the last applied input.
func (m *Machine) Input() Input { return m.in }

func sameState(a, b State) bool {
	return a.Kind == b.Kind && a.User == b.User && a.Projects == b.Projects
}

// Sequencer makes overlapping refetches resolve as "last response wins":
// responses to requests older than the newest applied one are dropped.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next tags a new request.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Accept reports whether the response to request seq should be applied.
func (s *Sequencer) Accept(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}

// Issued returns how many requests were tagged.
func (s *Sequencer) Issued() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

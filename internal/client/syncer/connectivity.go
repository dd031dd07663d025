package syncer

import "sync/atomic"

// Connectivity is the read-only online signal.
type Connectivity interface {
	Online() bool
}

// Signal is a settable Connectivity.
type Signal struct {
	online atomic.Bool
}

// NewSignal returns a signal with the given initial state.
func NewSignal(online bool) *Signal {
	s := &Signal{}
	s.online.Store(online)
	return s
}

// Online implements Connectivity.
func (s *Signal) Online() bool { return s.online.Load() }

// SetOnline flips the signal.
func (s *Signal) SetOnline(v bool) { s.online.Store(v) }

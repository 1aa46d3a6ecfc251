package config

import (
	"fmt"
	"sync/atomic"
)

// Store holds the current Settings snapshot behind a single atomic pointer.
// Readers always observe a fully validated snapshot; reload swaps the whole
// value at once and never exposes a partially applied configuration.
type Store struct {
	current atomic.Pointer[Settings]
}

// NewStore creates a Store seeded with a validated snapshot
func NewStore(s Settings) (*Store, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	st := &Store{}
	st.current.Store(&s)
	return st, nil
}

// Snapshot returns the current settings.
// The returned pointer must be treated as read-only.
func (st *Store) Snapshot() *Settings {
	return st.current.Load()
}

// Swap validates the new settings and atomically replaces the snapshot.
// On validation failure the previous snapshot stays in effect.
func (st *Store) Swap(s Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("settings reload rejected: %w", err)
	}
	st.current.Store(&s)
	return nil
}

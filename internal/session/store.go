// Package session keeps the per-mode input/output state. Every mode owns an
// independent record; switching the active mode is a pointer swap that never
// touches the newly-inactive record or cancels its in-flight work.
package session

import (
	"sync"

	"studio/internal/domain"
	"studio/internal/infra"
)

// Watcher observes committed updates to one mode's state.
type Watcher func(domain.ModeState)

// Store holds a ModeState per mode plus the active-mode pointer.
type Store struct {
	mu       sync.RWMutex
	active   domain.Mode
	states   map[domain.Mode]domain.ModeState
	watchers map[domain.Mode][]Watcher
	logger   *infra.Logger
}

// NewStore initializes every mode with its zero state. Image mode starts
// active.
func NewStore(logger *infra.Logger) *Store {
	states := make(map[domain.Mode]domain.ModeState, len(domain.Modes()))
	for _, m := range domain.Modes() {
		states[m] = domain.ModeState{}
	}
	return &Store{
		active:   domain.ModeImage,
		states:   states,
		watchers: make(map[domain.Mode][]Watcher),
		logger:   logger,
	}
}

// ActiveMode returns the mode currently bound to the UI.
func (s *Store) ActiveMode() domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SwitchMode repoints the active mode. The state of both modes is untouched.
func (s *Store) SwitchMode(mode domain.Mode) error {
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != mode {
		s.logger.Debug().Str("from", s.active.String()).Str("to", mode.String()).Msg("session: mode switched")
		s.active = mode
	}
	return nil
}

// Snapshot returns a copy of the named mode's record.
func (s *Store) Snapshot(mode domain.Mode) domain.ModeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[mode]
}

// Update applies fn to a copy of the named mode's record and commits the
// result, then notifies that mode's watchers and no others. Merge
// semantics are fn's concern; the commit itself is a whole-record replace.
func (s *Store) Update(mode domain.Mode, fn func(*domain.ModeState)) {
	s.mu.Lock()
	state := s.states[mode]
	fn(&state)
	s.states[mode] = state
	watchers := append([]Watcher(nil), s.watchers[mode]...)
	s.mu.Unlock()

	for _, w := range watchers {
		w(state)
	}
}

// Replace overwrites the named mode's record wholesale (history replay).
func (s *Store) Replace(mode domain.Mode, state domain.ModeState) {
	s.Update(mode, func(current *domain.ModeState) {
		*current = state
	})
}

// Watch registers a watcher for one mode's committed updates.
func (s *Store) Watch(mode domain.Mode, w Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers[mode] = append(s.watchers[mode], w)
}

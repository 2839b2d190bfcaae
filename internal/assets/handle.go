// Package assets gives generated binary output explicit scoped ownership: a
// slot owns at most one live handle, assigning a replacement releases the
// previous occupant, and session teardown releases whatever is left. Double
// release and leaked handles are both invariant violations.
package assets

import (
	"errors"
	"fmt"
	"sync"

	"studio/internal/domain"
)

// ErrAlreadyReleased is returned when a handle is released a second time.
var ErrAlreadyReleased = errors.New("assets: handle already released")

// Handle is a locally-owned reference to one stored binary output. Release
// frees the backing resource; it must be called exactly once.
type Handle struct {
	key     string
	release func() error

	mu       sync.Mutex
	released bool
}

// NewHandle wraps a stored blob. release is invoked exactly once, on the first
// Release call.
func NewHandle(key string, release func() error) *Handle {
	return &Handle{key: key, release: release}
}

// Key returns the storage key backing this handle.
func (h *Handle) Key() string {
	return h.key
}

// Release frees the backing resource. The second and later calls fail with
// ErrAlreadyReleased and do not re-run the release function.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return fmt.Errorf("%w: %s", ErrAlreadyReleased, h.key)
	}
	h.released = true
	if h.release == nil {
		return nil
	}
	return h.release()
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Registry tracks the live handles per output slot.
type Registry struct {
	mu   sync.Mutex
	live map[domain.Slot][]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[domain.Slot][]*Handle)}
}

// Assign makes handles the slot's live set, releasing the previous occupants
// synchronously. A nil or empty handles slice just releases the slot.
func (r *Registry) Assign(slot domain.Slot, handles ...*Handle) error {
	r.mu.Lock()
	previous := r.live[slot]
	if len(handles) == 0 {
		delete(r.live, slot)
	} else {
		r.live[slot] = handles
	}
	r.mu.Unlock()

	var errs []error
	for _, h := range previous {
		if err := h.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Live returns the slot's current handles.
func (r *Registry) Live(slot domain.Slot) []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.live[slot]...)
}

// Close releases every live handle. Called once on session teardown.
func (r *Registry) Close() error {
	r.mu.Lock()
	all := r.live
	r.live = make(map[domain.Slot][]*Handle)
	r.mu.Unlock()

	var errs []error
	for _, handles := range all {
		for _, h := range handles {
			if err := h.Release(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when an event is not allowed from the
// current state.
var ErrInvalidTransition = errors.New("invalid session transition")

// Gate owns the session state of one client. It is safe for concurrent use.
type Gate struct {
	mu      sync.RWMutex
	state   State
	loading bool
}

// NewGate returns a gate in the SignedOut state.
func NewGate() *Gate {
	return &Gate{state: SignedOut}
}

func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Status{State: g.state, Loading: g.loading}
}

// Route is a shorthand for Route(g.Status(), screen).
func (g *Gate) Route(screen Screen) Decision {
	return Route(g.Status(), screen)
}

// BeginResolve marks the gate as loading while a persisted session is
// being checked.
func (g *Gate) BeginResolve() {
	g.mu.Lock()
	g.loading = true
	g.mu.Unlock()
}

// Resolve ends a BeginResolve with the state recovered from storage.
func (g *Gate) Resolve(st State) {
	g.mu.Lock()
	g.state = st
	g.loading = false
	g.mu.Unlock()
}

// SignedIn records a successful sign-in or sign-up.
func (g *Gate) SignedIn() error {
	return g.transition(Unverified, SignedOut)
}

// PinVerified records a successful PIN check.
func (g *Gate) PinVerified() error {
	return g.transition(Verified, Unverified)
}

// SignOut moves any state to SignedOut.
func (g *Gate) SignOut() {
	g.Resolve(SignedOut)
}

// Invalidate handles an external session expiry.
func (g *Gate) Invalidate() {
	g.Resolve(SignedOut)
}

func (g *Gate) transition(to State, from State) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, g.state, to)
	}
	g.state = to
	return nil
}

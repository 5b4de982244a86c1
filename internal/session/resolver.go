// Package session tracks the current authenticated identity and its profile
// row. The resolver is an explicit, injectable session context with a real
// lifecycle rather than ambient global state, so gating can be tested
// without a live database.
package session

import (
	"context"
	"fmt"
	"sync"

	"campusmantri/internal/gate"
	"campusmantri/internal/model"
)

// ProfileLoader is the slice of the profile repository the resolver needs.
type ProfileLoader interface {
	// FindByAuthUID returns (nil, nil) when no profile row exists; absence
	// is a state, not an error.
	FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error)
}

// Resolver holds the (identity, profile) pair the gate evaluates. Refresh
// always re-reads from the store; there is no staleness tolerance. Each
// identity change bumps a generation counter so an in-flight fetch that
// completes after the identity moved on is discarded instead of overwriting
// newer state.
type Resolver struct {
	profiles ProfileLoader

	mu       sync.Mutex
	identity *model.Identity
	profile  *model.Profile
	gen      uint64

	stopWatch func()
}

// NewResolver creates a resolver with no identity bound yet.
func NewResolver(profiles ProfileLoader) *Resolver {
	return &Resolver{profiles: profiles}
}

// SetIdentity binds (or clears, with nil) the current identity. The cached
// profile is dropped: it belonged to the previous generation.
func (r *Resolver) SetIdentity(identity *model.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identity = identity
	r.profile = nil
	r.gen++
}

// Refresh re-reads the profile row for the bound identity. Idempotent and
// safe to call repeatedly. On a transport failure the profile is left nil so
// gating degrades to the safest state, and the error is returned for
// diagnostics; navigation must not crash on it.
func (r *Resolver) Refresh(ctx context.Context) error {
	r.mu.Lock()
	identity := r.identity
	gen := r.gen
	r.mu.Unlock()

	if identity == nil {
		return nil
	}

	profile, err := r.profiles.FindByAuthUID(ctx, identity.AuthUID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// Identity changed while the fetch was in flight; the result is
		// stale and must not clobber the newer state.
		return nil
	}
	if err != nil {
		r.profile = nil
		return fmt.Errorf("refresh profile: %w", err)
	}
	r.profile = profile
	return nil
}

// Current returns the cached (identity, profile) pair.
func (r *Resolver) Current() (*model.Identity, *model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity, r.profile
}

// State evaluates the gate over the cached pair.
func (r *Resolver) State() gate.State {
	identity, profile := r.Current()
	return gate.Evaluate(identity, profile)
}

// Watch subscribes the resolver to identity-change events. On every event
// it rebinds the identity and refreshes. Returns immediately; the consuming
// goroutine runs until ctx is done or Teardown is called.
func (r *Resolver) Watch(ctx context.Context, b *Broadcaster) {
	events, cancel := b.Subscribe(8)

	r.mu.Lock()
	r.stopWatch = cancel
	r.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				r.SetIdentity(e.Identity)
				_ = r.Refresh(ctx) // failure already leaves the safe state
			}
		}
	}()
}

// Teardown ends the session: unsubscribes (exactly once) and clears the
// cached pair.
func (r *Resolver) Teardown() {
	r.mu.Lock()
	stop := r.stopWatch
	r.stopWatch = nil
	r.identity = nil
	r.profile = nil
	r.gen++
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
}

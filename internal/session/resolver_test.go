package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusmantri/internal/gate"
	"campusmantri/internal/model"
)

// =============================================================================
// MOCK PROFILE LOADER
// =============================================================================

type mockProfileLoader struct {
	findByAuthUIDFn func(ctx context.Context, authUID string) (*model.Profile, error)
	calls           int
}

func (m *mockProfileLoader) FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error) {
	m.calls++
	if m.findByAuthUIDFn != nil {
		return m.findByAuthUIDFn(ctx, authUID)
	}
	return nil, nil
}

func testIdentity(uid string) *model.Identity {
	return &model.Identity{AuthUID: uid, Email: uid + "@example.com"}
}

// =============================================================================
// REFRESH TESTS
// =============================================================================

func TestResolver_RefreshLoadsProfile(t *testing.T) {
	loader := &mockProfileLoader{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return &model.Profile{AuthUID: authUID, ProgramRead: true}, nil
		},
	}
	r := NewResolver(loader)
	r.SetIdentity(testIdentity("uid-1"))

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	identity, profile := r.Current()
	if identity == nil || identity.AuthUID != "uid-1" {
		t.Fatalf("identity = %+v, want uid-1", identity)
	}
	if profile == nil || profile.AuthUID != "uid-1" {
		t.Fatalf("profile = %+v, want row for uid-1", profile)
	}
	if r.State() != gate.Active {
		t.Errorf("state = %q, want %q", r.State(), gate.Active)
	}
}

func TestResolver_RefreshWithoutIdentityIsNoop(t *testing.T) {
	loader := &mockProfileLoader{}
	r := NewResolver(loader)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if loader.calls != 0 {
		t.Errorf("loader called %d times, want 0", loader.calls)
	}
	if r.State() != gate.Unauthenticated {
		t.Errorf("state = %q, want %q", r.State(), gate.Unauthenticated)
	}
}

func TestResolver_RefreshErrorDegradesToSafestState(t *testing.T) {
	loadErr := errors.New("connection refused")
	loader := &mockProfileLoader{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return &model.Profile{AuthUID: authUID}, nil
		},
	}
	r := NewResolver(loader)
	r.SetIdentity(testIdentity("uid-1"))

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	// Store starts failing; the cached profile must not survive.
	loader.findByAuthUIDFn = func(ctx context.Context, authUID string) (*model.Profile, error) {
		return nil, loadErr
	}

	err := r.Refresh(context.Background())
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected wrapped load error, got: %v", err)
	}

	_, profile := r.Current()
	if profile != nil {
		t.Error("profile should be cleared after a failed refresh")
	}
	if r.State() != gate.NoProfile {
		t.Errorf("state = %q, want %q (the safest signed-in state)", r.State(), gate.NoProfile)
	}
}

func TestResolver_StaleFetchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	loader := &mockProfileLoader{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			if authUID == "uid-old" {
				close(started)
				<-release // hold the fetch until the identity has moved on
				return &model.Profile{AuthUID: "uid-old"}, nil
			}
			return nil, nil
		},
	}
	r := NewResolver(loader)
	r.SetIdentity(testIdentity("uid-old"))

	done := make(chan error, 1)
	go func() {
		done <- r.Refresh(context.Background())
	}()

	<-started
	// Identity changes while the old fetch is still in flight.
	r.SetIdentity(testIdentity("uid-new"))
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("stale Refresh returned error: %v", err)
	}

	identity, profile := r.Current()
	if identity.AuthUID != "uid-new" {
		t.Fatalf("identity = %q, want uid-new", identity.AuthUID)
	}
	if profile != nil {
		t.Errorf("stale fetch result must be discarded, got profile for %q", profile.AuthUID)
	}
}

func TestResolver_SetIdentityDropsCachedProfile(t *testing.T) {
	loader := &mockProfileLoader{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return &model.Profile{AuthUID: authUID}, nil
		},
	}
	r := NewResolver(loader)
	r.SetIdentity(testIdentity("uid-1"))
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	r.SetIdentity(testIdentity("uid-2"))

	_, profile := r.Current()
	if profile != nil {
		t.Error("cached profile belongs to the previous identity and must be dropped")
	}
}

// =============================================================================
// WATCH / TEARDOWN TESTS
// =============================================================================

func waitForState(t *testing.T, r *Resolver, want gate.State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if r.State() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("state = %q, want %q (timed out)", r.State(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestResolver_WatchFollowsSessionEvents(t *testing.T) {
	loader := &mockProfileLoader{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return &model.Profile{AuthUID: authUID, ProgramRead: true}, nil
		},
	}
	r := NewResolver(loader)
	bus := NewBroadcaster()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Watch(ctx, bus)

	bus.Publish(Event{Type: EventSignedIn, Identity: testIdentity("uid-1")})
	waitForState(t, r, gate.Active)

	bus.Publish(Event{Type: EventSignedOut, Identity: nil})
	waitForState(t, r, gate.Unauthenticated)
}

func TestResolver_TeardownClearsStateAndUnsubscribes(t *testing.T) {
	loader := &mockProfileLoader{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return &model.Profile{AuthUID: authUID, ProgramRead: true}, nil
		},
	}
	r := NewResolver(loader)
	bus := NewBroadcaster()

	r.Watch(context.Background(), bus)
	bus.Publish(Event{Type: EventSignedIn, Identity: testIdentity("uid-1")})
	waitForState(t, r, gate.Active)

	r.Teardown()

	if r.State() != gate.Unauthenticated {
		t.Errorf("state after teardown = %q, want %q", r.State(), gate.Unauthenticated)
	}

	// Events published after teardown must not resurrect the session.
	bus.Publish(Event{Type: EventSignedIn, Identity: testIdentity("uid-1")})
	time.Sleep(20 * time.Millisecond)
	if r.State() != gate.Unauthenticated {
		t.Error("torn-down resolver should ignore later events")
	}

	// Calling Teardown again must not panic (double-close protection).
	r.Teardown()
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBroadcaster()
	_, cancel := bus.Subscribe(1)
	defer cancel()

	// Buffer of one: the second publish would block a naive implementation.
	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Type: EventSignedIn})
		bus.Publish(Event{Type: EventSignedOut})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}

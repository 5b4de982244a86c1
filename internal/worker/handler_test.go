package worker

import (
	"context"
	"errors"
	"testing"

	"campusmantri/internal/cache"
	"campusmantri/internal/model"
	"campusmantri/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockLeaderboard struct {
	setScoreFn func(ctx context.Context, authUID string, postsCount int) error

	scores  map[string]int
	removed []string
}

func newMockLeaderboard() *mockLeaderboard {
	return &mockLeaderboard{scores: make(map[string]int)}
}

func (m *mockLeaderboard) SetScore(ctx context.Context, authUID string, postsCount int) error {
	if m.setScoreFn != nil {
		return m.setScoreFn(ctx, authUID, postsCount)
	}
	m.scores[authUID] = postsCount
	return nil
}

func (m *mockLeaderboard) Top(ctx context.Context, limit int) ([]cache.Entry, error) {
	return nil, nil
}

func (m *mockLeaderboard) Remove(ctx context.Context, authUID string) error {
	m.removed = append(m.removed, authUID)
	delete(m.scores, authUID)
	return nil
}

type mockProfileProvider struct {
	findByAuthUIDFn func(ctx context.Context, authUID string) (*model.Profile, error)
}

func (m *mockProfileProvider) FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error) {
	if m.findByAuthUIDFn != nil {
		return m.findByAuthUIDFn(ctx, authUID)
	}
	return nil, nil
}

// =============================================================================
// EVENT HANDLING TESTS
// =============================================================================

func TestHandler_ProfileCreatedSeedsZeroScore(t *testing.T) {
	lb := newMockLeaderboard()
	h := NewHandler(lb, &mockProfileProvider{})

	err := h.HandleEvent(context.Background(), queue.NewProfileCreatedEvent("uid-1"))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	score, ok := lb.scores["uid-1"]
	if !ok {
		t.Fatal("expected a seeded leaderboard entry")
	}
	if score != 0 {
		t.Errorf("seeded score = %d, want 0", score)
	}
}

func TestHandler_DaySubmittedUsesStoredCountNotPayload(t *testing.T) {
	lb := newMockLeaderboard()
	provider := &mockProfileProvider{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return &model.Profile{AuthUID: authUID, DailyPostsCount: 5}, nil
		},
	}
	h := NewHandler(lb, provider)

	// Payload claims 3; the stored row says 5. Stored truth wins so that
	// replayed or reordered deliveries converge.
	event := queue.NewDaySubmittedEvent("uid-1", 2, false, 3)

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if lb.scores["uid-1"] != 5 {
		t.Errorf("score = %d, want 5 (from the stored profile)", lb.scores["uid-1"])
	}
}

func TestHandler_DaySubmittedMissingProfileRemovesEntry(t *testing.T) {
	lb := newMockLeaderboard()
	lb.scores["uid-1"] = 4
	h := NewHandler(lb, &mockProfileProvider{}) // provider returns (nil, nil)

	err := h.HandleEvent(context.Background(), queue.NewDaySubmittedEvent("uid-1", 1, false, 1))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if len(lb.removed) != 1 || lb.removed[0] != "uid-1" {
		t.Errorf("removed = %v, want [uid-1]", lb.removed)
	}
}

func TestHandler_ProfileLoadErrorPropagates(t *testing.T) {
	loadErr := errors.New("connection refused")
	provider := &mockProfileProvider{
		findByAuthUIDFn: func(ctx context.Context, authUID string) (*model.Profile, error) {
			return nil, loadErr
		},
	}
	h := NewHandler(newMockLeaderboard(), provider)

	err := h.HandleEvent(context.Background(), queue.NewDaySubmittedEvent("uid-1", 1, false, 1))
	if !errors.Is(err, loadErr) {
		t.Errorf("expected wrapped load error, got: %v", err)
	}
}

func TestHandler_NonScoringEventsAreIgnored(t *testing.T) {
	lb := newMockLeaderboard()
	h := NewHandler(lb, &mockProfileProvider{})
	ctx := context.Background()

	for _, event := range []queue.ActivityEvent{
		queue.NewIntroAcknowledgedEvent("uid-1"),
		queue.NewGfgProfileLinkedEvent("uid-1"),
		{Type: "something_future"},
	} {
		if err := h.HandleEvent(ctx, event); err != nil {
			t.Errorf("event %q: unexpected error: %v", event.Type, err)
		}
	}
	if len(lb.scores) != 0 || len(lb.removed) != 0 {
		t.Error("non-scoring events must not touch the leaderboard")
	}
}

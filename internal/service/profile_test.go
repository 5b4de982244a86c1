package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campusmantri/internal/gate"
	"campusmantri/internal/model"
	"campusmantri/internal/queue"
)

// =============================================================================
// FAKE PROFILE REPOSITORY
// =============================================================================
//
// A fake, not a per-test mock: it mirrors what the SQL layer guarantees
// (one row per auth_uid, ErrProfileExists on a second insert, the count
// recomputed in the same write as the slot), so service tests exercise real
// sequences of operations against consistent storage behavior.

type fakeProfileRepository struct {
	rows map[string]*model.Profile

	applyCalls []model.ProfilePatch
	findErr    error
	applyErr   error
}

func newFakeProfileRepository() *fakeProfileRepository {
	return &fakeProfileRepository{rows: make(map[string]*model.Profile)}
}

func (f *fakeProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if _, ok := f.rows[profile.AuthUID]; ok {
		return model.ErrProfileExists
	}
	cp := *profile
	f.rows[profile.AuthUID] = &cp
	return nil
}

func (f *fakeProfileRepository) FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	row, ok := f.rows[authUID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeProfileRepository) Apply(ctx context.Context, authUID string, patch model.ProfilePatch) error {
	f.applyCalls = append(f.applyCalls, patch)
	if f.applyErr != nil {
		return f.applyErr
	}
	row, ok := f.rows[authUID]
	if !ok {
		return model.ErrProfileNotFound
	}

	switch p := patch.(type) {
	case model.SetDayPatch:
		row.SetDayURL(p.Day, p.URL)
		// Count and slot move together, like the single UPDATE does.
		n := 0
		for d := 1; d <= model.DayCount; d++ {
			if u := row.DayURL(d); u != nil && strings.TrimSpace(*u) != "" {
				n++
			}
		}
		row.DailyPostsCount = n
	case model.SetProgramReadPatch:
		row.ProgramRead = true
	case model.SetGfgProfileURLPatch:
		url := p.URL
		row.GfgProfileURL = &url
	}
	return nil
}

// =============================================================================
// MOCK ACTIVITY PUBLISHER
// =============================================================================

type mockPublisher struct {
	events []queue.ActivityEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.ActivityEvent) (string, error) {
	m.events = append(m.events, event)
	return "1-0", nil
}

func validOnboarding() *model.OnboardingRequest {
	return &model.OnboardingRequest{
		College:      "Test College",
		FullName:     "Test Mantri",
		Year:         2,
		Branch:       "CSE",
		Phone:        "9876543210",
		GfgUsername:  "testmantri",
		LinkedinURL:  "https://linkedin.com/in/testmantri",
		InstagramURL: "https://instagram.com/testmantri",
		City:         "Pune",
		State:        "Maharashtra",
	}
}

func identityFixture() *model.Identity {
	return &model.Identity{AuthUID: "uid-1", Email: "mantri@example.com"}
}

// =============================================================================
// ONBOARDING TESTS
// =============================================================================

func TestProfileService_Onboard_Success(t *testing.T) {
	repo := newFakeProfileRepository()
	pub := &mockPublisher{}
	svc := NewProfileService(repo, pub)

	profile, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding())
	if err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}

	if profile.AuthUID != "uid-1" {
		t.Errorf("auth_uid = %q, want uid-1", profile.AuthUID)
	}
	if profile.Email != "mantri@example.com" {
		t.Errorf("email = %q, want mantri@example.com", profile.Email)
	}
	if profile.ProgramRead {
		t.Error("program_read should start false")
	}
	if profile.DailyPostsCount != 0 {
		t.Errorf("daily_posts_count = %d, want 0", profile.DailyPostsCount)
	}
	if profile.Role != model.RoleUser {
		t.Errorf("role = %q, want %q", profile.Role, model.RoleUser)
	}

	if len(pub.events) != 1 || pub.events[0].Type != queue.EventProfileCreated {
		t.Errorf("expected one profile_created event, got %+v", pub.events)
	}
}

func TestProfileService_Onboard_RoundTrip(t *testing.T) {
	repo := newFakeProfileRepository()
	svc := NewProfileService(repo, nil)
	req := validOnboarding()

	created, err := svc.Onboard(context.Background(), identityFixture(), req)
	if err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}

	reloaded, err := svc.GetByAuthUID(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded == nil {
		t.Fatal("expected stored profile, got nil")
	}

	if reloaded.FullName != created.FullName ||
		reloaded.College != created.College ||
		reloaded.Year != created.Year ||
		reloaded.Phone != created.Phone ||
		reloaded.GfgUsername != created.GfgUsername {
		t.Errorf("reloaded profile differs from created: %+v vs %+v", reloaded, created)
	}
}

func TestProfileService_Onboard_ValidationCollectsAllFailures(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepository(), nil)

	req := validOnboarding()
	req.FullName = ""
	req.City = ""
	req.Phone = "12345" // too short

	_, err := svc.Onboard(context.Background(), identityFixture(), req)

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}
	for _, field := range []string{"full_name", "city", "phone"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected failure for %q, fields = %v", field, verr.Fields)
		}
	}
}

func TestProfileService_Onboard_PhoneValidation(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepository(), nil)

	tests := []struct {
		phone string
		valid bool
	}{
		{"9876543210", true},
		{"12345", false},
		{"98765432101", false}, // 11 digits
		{"98765golf0", false},
		{"+919876543", false}, // sign not allowed
	}

	for _, tt := range tests {
		req := validOnboarding()
		req.Phone = tt.phone

		_, err := svc.Onboard(context.Background(), &model.Identity{AuthUID: "uid-" + tt.phone}, req)

		var verr *model.ValidationError
		gotInvalid := errors.As(err, &verr)
		if tt.valid && gotInvalid {
			t.Errorf("phone %q: unexpected validation failure: %v", tt.phone, verr.Fields)
		}
		if !tt.valid && !gotInvalid {
			t.Errorf("phone %q: expected validation failure, got: %v", tt.phone, err)
		}
	}
}

func TestProfileService_Onboard_SecondSubmitConflicts(t *testing.T) {
	repo := newFakeProfileRepository()
	svc := NewProfileService(repo, nil)

	if _, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding()); err != nil {
		t.Fatalf("first Onboard failed: %v", err)
	}

	_, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding())
	if !errors.Is(err, model.ErrProfileExists) {
		t.Errorf("second Onboard: expected ErrProfileExists, got: %v", err)
	}
}

// =============================================================================
// INTRO ACKNOWLEDGMENT TESTS
// =============================================================================

func TestProfileService_AcknowledgeIntro(t *testing.T) {
	repo := newFakeProfileRepository()
	svc := NewProfileService(repo, nil)
	if _, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding()); err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}

	if err := svc.AcknowledgeIntro(context.Background(), "uid-1"); err != nil {
		t.Fatalf("AcknowledgeIntro failed: %v", err)
	}

	profile, _ := svc.GetByAuthUID(context.Background(), "uid-1")
	if !profile.ProgramRead {
		t.Error("program_read should be true after acknowledgment")
	}
}

func TestProfileService_AcknowledgeIntro_IdempotentWithoutSecondWrite(t *testing.T) {
	repo := newFakeProfileRepository()
	svc := NewProfileService(repo, nil)
	if _, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding()); err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}

	if err := svc.AcknowledgeIntro(context.Background(), "uid-1"); err != nil {
		t.Fatalf("first AcknowledgeIntro failed: %v", err)
	}
	writes := len(repo.applyCalls)

	if err := svc.AcknowledgeIntro(context.Background(), "uid-1"); err != nil {
		t.Fatalf("second AcknowledgeIntro failed: %v", err)
	}

	if len(repo.applyCalls) != writes {
		t.Errorf("second acknowledgment issued %d extra write(s); want 0",
			len(repo.applyCalls)-writes)
	}
}

func TestProfileService_AcknowledgeIntro_NoProfile(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepository(), nil)

	err := svc.AcknowledgeIntro(context.Background(), "uid-missing")
	if !errors.Is(err, model.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got: %v", err)
	}
}

// =============================================================================
// DAILY SUBMISSION TESTS
// =============================================================================

func onboardedService(t *testing.T) (*ProfileService, *fakeProfileRepository, *mockPublisher) {
	t.Helper()
	repo := newFakeProfileRepository()
	pub := &mockPublisher{}
	svc := NewProfileService(repo, pub)
	if _, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding()); err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}
	if err := svc.AcknowledgeIntro(context.Background(), "uid-1"); err != nil {
		t.Fatalf("AcknowledgeIntro failed: %v", err)
	}
	return svc, repo, pub
}

func TestProfileService_SaveDay_CountTracksFilledSlots(t *testing.T) {
	svc, _, _ := onboardedService(t)
	ctx := context.Background()

	for day := 1; day <= model.DayCount; day++ {
		url := "https://example.com/p/" + strings.Repeat("x", day)
		updated, err := svc.SaveDay(ctx, "uid-1", day, url)
		if err != nil {
			t.Fatalf("SaveDay(%d) failed: %v", day, err)
		}
		if updated.DailyPostsCount != day {
			t.Errorf("after day %d: count = %d, want %d", day, updated.DailyPostsCount, day)
		}
	}
}

func TestProfileService_SaveDay_TrimsWhitespace(t *testing.T) {
	svc, _, _ := onboardedService(t)

	updated, err := svc.SaveDay(context.Background(), "uid-1", 1, "  https://example.com/p/1\n")
	if err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}
	if updated.Day1URL == nil || *updated.Day1URL != "https://example.com/p/1" {
		t.Errorf("day1_url = %v, want trimmed URL", updated.Day1URL)
	}
}

func TestProfileService_SaveDay_DuplicateRejectedWithoutWrite(t *testing.T) {
	svc, repo, _ := onboardedService(t)
	ctx := context.Background()

	if _, err := svc.SaveDay(ctx, "uid-1", 2, "https://example.com/p/shared"); err != nil {
		t.Fatalf("SaveDay(2) failed: %v", err)
	}
	writes := len(repo.applyCalls)

	_, err := svc.SaveDay(ctx, "uid-1", 5, "https://example.com/p/shared")

	var dup *model.DuplicateDayError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateDayError, got: %v", err)
	}
	if dup.Day != 5 || dup.Other != 2 {
		t.Errorf("DuplicateDayError = {Day:%d Other:%d}, want {Day:5 Other:2}", dup.Day, dup.Other)
	}

	// Rejection happens before any persistence attempt.
	if len(repo.applyCalls) != writes {
		t.Error("duplicate rejection must not reach the store")
	}
	profile, _ := svc.GetByAuthUID(ctx, "uid-1")
	if profile.Day5URL != nil {
		t.Error("rejected slot must stay empty")
	}
	if profile.DailyPostsCount != 1 {
		t.Errorf("count = %d, want 1 (unchanged)", profile.DailyPostsCount)
	}
}

func TestProfileService_SaveDay_ResubmitSameSlotAllowed(t *testing.T) {
	svc, _, _ := onboardedService(t)
	ctx := context.Background()

	if _, err := svc.SaveDay(ctx, "uid-1", 3, "https://example.com/p/3"); err != nil {
		t.Fatalf("first SaveDay failed: %v", err)
	}
	updated, err := svc.SaveDay(ctx, "uid-1", 3, "https://example.com/p/3")
	if err != nil {
		t.Fatalf("re-submitting a slot's own URL should be allowed, got: %v", err)
	}
	if updated.DailyPostsCount != 1 {
		t.Errorf("count = %d, want 1", updated.DailyPostsCount)
	}
}

func TestProfileService_SaveDay_ClearDecrementsCount(t *testing.T) {
	svc, _, _ := onboardedService(t)
	ctx := context.Background()

	if _, err := svc.SaveDay(ctx, "uid-1", 1, "https://example.com/p/1"); err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}
	if _, err := svc.SaveDay(ctx, "uid-1", 2, "https://example.com/p/2"); err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}

	updated, err := svc.SaveDay(ctx, "uid-1", 1, "")
	if err != nil {
		t.Fatalf("clearing a slot failed: %v", err)
	}
	if updated.Day1URL != nil {
		t.Errorf("day1_url = %v, want nil after clear", updated.Day1URL)
	}
	if updated.DailyPostsCount != 1 {
		t.Errorf("count = %d, want 1 after clearing one of two", updated.DailyPostsCount)
	}
}

func TestProfileService_SaveDay_InvalidDay(t *testing.T) {
	svc, _, _ := onboardedService(t)

	for _, day := range []int{0, 8, -1} {
		_, err := svc.SaveDay(context.Background(), "uid-1", day, "https://example.com/p/x")
		if !errors.Is(err, model.ErrInvalidDay) {
			t.Errorf("day %d: expected ErrInvalidDay, got: %v", day, err)
		}
	}
}

func TestProfileService_SaveDay_PublishesActivity(t *testing.T) {
	svc, _, pub := onboardedService(t)
	published := len(pub.events)

	if _, err := svc.SaveDay(context.Background(), "uid-1", 4, "https://example.com/p/4"); err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}

	if len(pub.events) != published+1 {
		t.Fatalf("expected one new activity event, got %d", len(pub.events)-published)
	}
	event := pub.events[len(pub.events)-1]
	if event.Type != queue.EventDaySubmitted || event.Day != 4 || event.Cleared || event.PostsCount != 1 {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestProfileService_SaveDay_SeventhSlotCompletesGate(t *testing.T) {
	svc, _, _ := onboardedService(t)
	ctx := context.Background()
	identity := identityFixture()

	for day := 1; day <= 6; day++ {
		if _, err := svc.SaveDay(ctx, "uid-1", day, "https://example.com/p/"+strings.Repeat("y", day)); err != nil {
			t.Fatalf("SaveDay(%d) failed: %v", day, err)
		}
	}

	state, _ := svc.Resolve(ctx, identity)
	if state != gate.Active {
		t.Fatalf("before day 7: state = %q, want %q", state, gate.Active)
	}

	if _, err := svc.SaveDay(ctx, "uid-1", 7, "https://example.com/p/final"); err != nil {
		t.Fatalf("SaveDay(7) failed: %v", err)
	}

	state, profile := svc.Resolve(ctx, identity)
	if state != gate.Completed {
		t.Errorf("after day 7: state = %q, want %q", state, gate.Completed)
	}
	if svc.CompletedCount(profile) != model.DayCount {
		t.Errorf("completed count = %d, want %d", svc.CompletedCount(profile), model.DayCount)
	}
}

// =============================================================================
// GFG PROFILE LINK TESTS
// =============================================================================

func TestProfileService_SaveGfgProfileURL(t *testing.T) {
	svc, _, _ := onboardedService(t)
	ctx := context.Background()

	if err := svc.SaveGfgProfileURL(ctx, "uid-1", "https://gfg.example.com/u/testmantri"); err != nil {
		t.Fatalf("SaveGfgProfileURL failed: %v", err)
	}

	profile, _ := svc.GetByAuthUID(ctx, "uid-1")
	if profile.GfgProfileURL == nil || *profile.GfgProfileURL != "https://gfg.example.com/u/testmantri" {
		t.Errorf("gfg_profile_url = %v, want stored URL", profile.GfgProfileURL)
	}
}

func TestProfileService_SaveGfgProfileURL_EmptyRejected(t *testing.T) {
	svc, _, _ := onboardedService(t)

	err := svc.SaveGfgProfileURL(context.Background(), "uid-1", "   ")

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}
	if _, ok := verr.Fields["gfg_profile_url"]; !ok {
		t.Errorf("expected gfg_profile_url failure, fields = %v", verr.Fields)
	}
}

// =============================================================================
// GATE RESOLUTION TESTS
// =============================================================================

func TestProfileService_Resolve_StatesAcrossFlow(t *testing.T) {
	repo := newFakeProfileRepository()
	svc := NewProfileService(repo, nil)
	ctx := context.Background()
	identity := identityFixture()

	if state, _ := svc.Resolve(ctx, nil); state != gate.Unauthenticated {
		t.Errorf("nil identity: state = %q, want %q", state, gate.Unauthenticated)
	}

	if state, _ := svc.Resolve(ctx, identity); state != gate.NoProfile {
		t.Errorf("no row: state = %q, want %q", state, gate.NoProfile)
	}

	if _, err := svc.Onboard(ctx, identity, validOnboarding()); err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}
	if state, _ := svc.Resolve(ctx, identity); state != gate.IntroPending {
		t.Errorf("after onboarding: state = %q, want %q", state, gate.IntroPending)
	}

	if err := svc.AcknowledgeIntro(ctx, "uid-1"); err != nil {
		t.Fatalf("AcknowledgeIntro failed: %v", err)
	}
	if state, _ := svc.Resolve(ctx, identity); state != gate.Active {
		t.Errorf("after intro: state = %q, want %q", state, gate.Active)
	}
}

func TestProfileService_CompletedCountBeforeOnboarding(t *testing.T) {
	// A freshly logged-in user has no profile row yet; the gate response
	// still carries a progress count, which must be zero, not a crash.
	svc := NewProfileService(newFakeProfileRepository(), nil)

	state, profile := svc.Resolve(context.Background(), identityFixture())
	if state != gate.NoProfile {
		t.Fatalf("state = %q, want %q", state, gate.NoProfile)
	}
	if profile != nil {
		t.Fatalf("profile = %+v, want nil", profile)
	}
	if got := svc.CompletedCount(profile); got != 0 {
		t.Errorf("completed count = %d, want 0", got)
	}
}

func TestProfileService_Resolve_LoadFailureDegrades(t *testing.T) {
	repo := newFakeProfileRepository()
	svc := NewProfileService(repo, nil)
	if _, err := svc.Onboard(context.Background(), identityFixture(), validOnboarding()); err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}

	repo.findErr = errors.New("connection refused")

	state, profile := svc.Resolve(context.Background(), identityFixture())
	if state != gate.NoProfile {
		t.Errorf("state = %q, want %q (degraded)", state, gate.NoProfile)
	}
	if profile != nil {
		t.Error("profile should be nil when the load fails")
	}
	if got := svc.CompletedCount(profile); got != 0 {
		t.Errorf("completed count = %d, want 0 for the degraded state", got)
	}
}

package service

import (
	"context"
	"log"

	"campusmantri/internal/gate"
	"campusmantri/internal/ledger"
	"campusmantri/internal/model"
	"campusmantri/internal/queue"
	"campusmantri/internal/repository"
	"campusmantri/internal/session"
)

// ProfileService handles onboarding, the intro gate and the daily
// submission ledger.
type ProfileService struct {
	profiles repository.ProfileRepository
	activity queue.Publisher // may be nil; activity reporting is best-effort
}

func NewProfileService(profiles repository.ProfileRepository, activity queue.Publisher) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		activity: activity,
	}
}

// Onboard validates the onboarding form and creates the single profile row
// for the identity. A uniqueness violation (the identity already has a row,
// e.g. from a pending-profile reconciliation) surfaces as
// model.ErrProfileExists and is non-fatal: the form stays editable.
func (s *ProfileService) Onboard(ctx context.Context, identity *model.Identity, req *model.OnboardingRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile := &model.Profile{
		AuthUID:         identity.AuthUID,
		Email:           identity.Email,
		FullName:        req.FullName,
		College:         req.College,
		Year:            req.Year,
		Branch:          req.Branch,
		Phone:           req.Phone,
		GfgUsername:     req.GfgUsername,
		LinkedinURL:     req.LinkedinURL,
		InstagramURL:    req.InstagramURL,
		City:            req.City,
		State:           req.State,
		ProgramRead:     false,
		DailyPostsCount: 0,
		Role:            model.RoleUser,
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.publish(ctx, queue.NewProfileCreatedEvent(identity.AuthUID))

	return profile, nil
}

// GetByAuthUID returns the profile row, or (nil, nil) when none exists.
func (s *ProfileService) GetByAuthUID(ctx context.Context, authUID string) (*model.Profile, error) {
	return s.profiles.FindByAuthUID(ctx, authUID)
}

// AcknowledgeIntro sets program_read. Monotonic false->true; acknowledging
// an already-read intro is a no-op, not an error.
func (s *ProfileService) AcknowledgeIntro(ctx context.Context, authUID string) error {
	profile, err := s.profiles.FindByAuthUID(ctx, authUID)
	if err != nil {
		return err
	}
	if profile == nil {
		return model.ErrProfileNotFound
	}
	if profile.ProgramRead {
		return nil
	}

	if err := s.profiles.Apply(ctx, authUID, model.SetProgramReadPatch{}); err != nil {
		return err
	}

	s.publish(ctx, queue.NewIntroAcknowledgedEvent(authUID))

	return nil
}

// SaveDay writes one submission slot. The raw URL is trimmed; empty clears
// the slot. A value already used by another slot is rejected before any
// store call with a DuplicateDayError, leaving the slot unchanged. On
// acceptance the slot and the recomputed daily_posts_count are persisted in
// one atomic update, and the freshly re-read profile is returned.
func (s *ProfileService) SaveDay(ctx context.Context, authUID string, day int, rawURL string) (*model.Profile, error) {
	if day < 1 || day > model.DayCount {
		return nil, model.ErrInvalidDay
	}

	profile, err := s.profiles.FindByAuthUID(ctx, authUID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, model.ErrProfileNotFound
	}

	url := ledger.Normalize(rawURL)
	if url != "" {
		if other, dup := ledger.DuplicateOf(profile, day, url); dup {
			return nil, &model.DuplicateDayError{Day: day, Other: other}
		}
	}

	patch := model.SetDayPatch{Day: day}
	if url != "" {
		patch.URL = &url
	}

	if err := s.profiles.Apply(ctx, authUID, patch); err != nil {
		return nil, err
	}

	// Re-read so the caller observes the persisted slot/count pair.
	updated, err := s.profiles.FindByAuthUID(ctx, authUID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.ErrProfileNotFound
	}

	s.publish(ctx, queue.NewDaySubmittedEvent(authUID, day, url == "", updated.DailyPostsCount))

	return updated, nil
}

// SaveGfgProfileURL overwrites the GfG Connect profile link. Presence is
// the only validation.
func (s *ProfileService) SaveGfgProfileURL(ctx context.Context, authUID, rawURL string) error {
	url := ledger.Normalize(rawURL)
	if url == "" {
		return &model.ValidationError{Fields: map[string]string{
			"gfg_profile_url": "gfg_profile_url is required",
		}}
	}

	profile, err := s.profiles.FindByAuthUID(ctx, authUID)
	if err != nil {
		return err
	}
	if profile == nil {
		return model.ErrProfileNotFound
	}

	if err := s.profiles.Apply(ctx, authUID, model.SetGfgProfileURLPatch{URL: url}); err != nil {
		return err
	}

	s.publish(ctx, queue.NewGfgProfileLinkedEvent(authUID))

	return nil
}

// Resolve computes the gate state for an identity via a fresh session
// resolver. A load failure degrades to the safest state (profile treated as
// absent) instead of breaking navigation; the failure is logged for
// diagnostics.
func (s *ProfileService) Resolve(ctx context.Context, identity *model.Identity) (gate.State, *model.Profile) {
	resolver := session.NewResolver(s.profiles)
	resolver.SetIdentity(identity)
	if err := resolver.Refresh(ctx); err != nil {
		log.Printf("[Gate] Profile refresh failed, degrading: %v", err)
	}
	state := resolver.State()
	_, profile := resolver.Current()
	return state, profile
}

// CompletedCount derives the progress counter for the currently loaded
// profile.
func (s *ProfileService) CompletedCount(profile *model.Profile) int {
	return ledger.CompletedCount(profile)
}

func (s *ProfileService) publish(ctx context.Context, event queue.ActivityEvent) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Publish(ctx, queue.StreamActivity, event); err != nil {
		log.Printf("[Profile] Activity publish failed: %v", err)
	}
}

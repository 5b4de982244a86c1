package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campusmantri/internal/model"
	"campusmantri/internal/pending"
	"campusmantri/internal/repository"
	"campusmantri/internal/session"
)

// IdentityService handles registration, sign-in and sign-out, plus the
// pending-profile handoff between the two.
type IdentityService struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	pending    pending.Store
	bus        *session.Broadcaster
}

func NewIdentityService(identities repository.IdentityRepository, profiles repository.ProfileRepository, pendingStore pending.Store, bus *session.Broadcaster) *IdentityService {
	return &IdentityService{
		identities: identities,
		profiles:   profiles,
		pending:    pendingStore,
		bus:        bus,
	}
}

// SignUp creates a new identity and parks a pending profile keyed by email.
// No session is issued; the user signs in afterwards, which is when the
// pending record gets reconciled.
func (s *IdentityService) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.Identity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)

	exists, err := s.identities.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &model.Identity{
		AuthUID:        uuid.New().String(),
		Email:          email,
		PasswordHashed: string(hashedPassword),
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}

	// Best-effort handoff: a lost pending record only means the user redoes
	// onboarding, so registration never fails on it.
	if err := s.pending.Put(ctx, pending.NewProfile(&identity.AuthUID, email)); err != nil {
		log.Printf("[Identity] Could not save pending profile for %s: %v", email, err)
	}

	return identity, nil
}

// SignIn authenticates by email and password, reconciles any pending
// profile left over from registration, and broadcasts the identity change.
func (s *IdentityService) SignIn(ctx context.Context, req *model.SignInRequest) (*model.Identity, error) {
	email := normalizeEmail(req.Email)

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			// Don't reveal whether the email is registered.
			return nil, model.ErrInvalidCredentials
		}
		// A store failure is not a credential failure; let it surface as one.
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	s.reconcilePending(ctx, identity)

	s.bus.Publish(session.Event{Type: session.EventSignedIn, Identity: identity})

	return identity, nil
}

// SignOut broadcasts the identity change. Token revocation is handled by
// AuthService; this only tears down session-derived state. The event
// carries no identity: subscribers rebind from it, and nil means "nobody".
func (s *IdentityService) SignOut(authUID string) {
	log.Printf("[Identity] Signed out: %s", authUID)
	s.bus.Publish(session.Event{Type: session.EventSignedOut, Identity: nil})
}

// GetByAuthUID retrieves an identity by its auth uid.
func (s *IdentityService) GetByAuthUID(ctx context.Context, authUID string) (*model.Identity, error) {
	return s.identities.GetByAuthUID(ctx, authUID)
}

// reconcilePending turns the registration-time pending record into a real
// profile row, once, on first successful login. Every step is best-effort:
// a failure leaves the pending record in place for the next login.
func (s *IdentityService) reconcilePending(ctx context.Context, identity *model.Identity) {
	p, err := s.pending.Get(ctx, identity.Email)
	if err != nil {
		log.Printf("[Identity] Could not read pending profile for %s: %v", identity.Email, err)
		return
	}
	if p == nil {
		return
	}

	existing, err := s.profiles.FindByAuthUID(ctx, identity.AuthUID)
	if err != nil {
		log.Printf("[Identity] Could not check profile for %s: %v", identity.Email, err)
		return
	}

	if existing == nil {
		profile := &model.Profile{
			AuthUID:         identity.AuthUID,
			Email:           identity.Email,
			ProgramRead:     p.ProgramRead,
			DailyPostsCount: p.DailyPostsCount,
			Role:            p.Role,
		}
		if err := s.profiles.Create(ctx, profile); err != nil && err != model.ErrProfileExists {
			log.Printf("[Identity] Could not reconcile pending profile for %s: %v", identity.Email, err)
			return
		}
	}

	if err := s.pending.Delete(ctx, identity.Email); err != nil {
		log.Printf("[Identity] Could not delete pending profile for %s: %v", identity.Email, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package repository

import (
	"context"
	"time"

	"campusmantri/internal/model"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	GetByAuthUID(ctx context.Context, authUID string) (*model.Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type ProfileRepository interface {
	// Create inserts the single profile row for an identity. Returns
	// model.ErrProfileExists on an auth_uid uniqueness violation.
	Create(ctx context.Context, profile *model.Profile) error

	// FindByAuthUID returns at most one row. Absence is (nil, nil), a
	// legitimate outcome distinct from a query failure.
	FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error)

	// Apply executes one typed patch as a single atomic UPDATE keyed by
	// auth_uid. Returns model.ErrProfileNotFound when no row matches.
	Apply(ctx context.Context, authUID string, patch model.ProfilePatch) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForIdentity(ctx context.Context, authUID string) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

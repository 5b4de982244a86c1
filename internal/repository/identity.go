package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"campusmantri/internal/model"
)

// identityRepository implements IdentityRepository using sqlx
type identityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *sqlx.DB) IdentityRepository {
	return &identityRepository{db: db}
}

// Create inserts a new identity into the database
func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	query := `
		INSERT INTO auth_identities (auth_uid, email, password_hashed, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		identity.AuthUID,
		identity.Email,
		identity.PasswordHashed,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	return nil
}

// GetByEmail retrieves an identity by email
func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	query := `
		SELECT auth_uid, email, password_hashed, created_at, updated_at
		FROM auth_identities
		WHERE email = $1
	`

	var identity model.Identity
	err := r.db.GetContext(ctx, &identity, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity by email: %w", err)
	}

	return &identity, nil
}

// GetByAuthUID retrieves an identity by its auth uid
func (r *identityRepository) GetByAuthUID(ctx context.Context, authUID string) (*model.Identity, error) {
	query := `
		SELECT auth_uid, email, password_hashed, created_at, updated_at
		FROM auth_identities
		WHERE auth_uid = $1
	`

	var identity model.Identity
	err := r.db.GetContext(ctx, &identity, query, authUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity by auth_uid: %w", err)
	}

	return &identity, nil
}

// ExistsByEmail checks if an email is already registered
func (r *identityRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM auth_identities WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Package pending bridges registration and first login. Registration only
// collects credentials; the minimal profile seed is parked here, keyed by
// email, until the first successful sign-in reconciles it into a real users
// row and deletes it. It is a best-effort handoff, not a durable queue:
// losing a record just means the user redoes onboarding.
package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campusmantri/internal/model"
)

const (
	// KeyPrefix is the key prefix for pending profile records
	KeyPrefix = "pending_profile:"

	// DefaultTTL caps how long a registration waits for its first login
	DefaultTTL = 14 * 24 * time.Hour
)

// Profile is the minimal seed written at registration. AuthUID may be nil
// when the identity provider did not establish a session at sign-up; the
// login flow fills it in from the authenticated identity.
type Profile struct {
	AuthUID         *string `json:"auth_uid"`
	Email           string  `json:"email"`
	DailyPostsCount int     `json:"daily_posts_count"`
	ProgramRead     bool    `json:"program_read"`
	Role            string  `json:"role"`
}

// NewProfile seeds a pending profile for a freshly registered identity.
func NewProfile(authUID *string, email string) Profile {
	return Profile{
		AuthUID:         authUID,
		Email:           email,
		DailyPostsCount: 0,
		ProgramRead:     false,
		Role:            model.RoleUser,
	}
}

// Store is the keyed pending-profile record store. Implementations must
// treat absence as (nil, nil), not as an error.
type Store interface {
	// Put writes (or overwrites) the record for p.Email.
	Put(ctx context.Context, p Profile) error

	// Get returns the record for email, or nil when none exists.
	Get(ctx context.Context, email string) (*Profile, error)

	// Delete removes the record for email. Deleting a missing record is a
	// no-op.
	Delete(ctx context.Context, email string) error
}

// RedisStore implements Store on Redis with a TTL per record.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Store backed by Redis. A non-positive ttl falls
// back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func pendingKey(email string) string {
	return KeyPrefix + email
}

func (s *RedisStore) Put(ctx context.Context, p Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending profile: %w", err)
	}

	if err := s.client.Set(ctx, pendingKey(p.Email), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending profile: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (*Profile, error) {
	data, err := s.client.Get(ctx, pendingKey(email)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pending profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending profile: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, pendingKey(email)).Err(); err != nil {
		return fmt.Errorf("delete pending profile: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"campusmantri/internal/model"
)

// dayColumns whitelists the slot column for each day index. Day indexes are
// never interpolated into SQL directly.
var dayColumns = [model.DayCount + 1]string{
	1: "day1_url",
	2: "day2_url",
	3: "day3_url",
	4: "day4_url",
	5: "day5_url",
	6: "day6_url",
	7: "day7_url",
}

// profileRepository implements ProfileRepository using sqlx
type profileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts the profile row for an identity
func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO users (
			auth_uid, email, full_name, college, year, branch, phone,
			gfg_username, linkedin_url, instagram_url, city, state,
			program_read, daily_posts_count, role, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.AuthUID,
		p.Email,
		p.FullName,
		p.College,
		p.Year,
		p.Branch,
		p.Phone,
		p.GfgUsername,
		p.LinkedinURL,
		p.InstagramURL,
		p.City,
		p.State,
		p.ProgramRead,
		p.DailyPostsCount,
		p.Role,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrProfileExists
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// FindByAuthUID retrieves the profile row for an identity, or (nil, nil)
// when the identity has no profile yet.
func (r *profileRepository) FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error) {
	query := `
		SELECT id, auth_uid, email, full_name, college, year, branch, phone,
		       gfg_username, linkedin_url, instagram_url, city, state,
		       program_read, day1_url, day2_url, day3_url, day4_url, day5_url,
		       day6_url, day7_url, daily_posts_count, gfg_profile_url, role,
		       created_at, updated_at
		FROM users
		WHERE auth_uid = $1
	`

	var p model.Profile
	err := r.db.GetContext(ctx, &p, query, authUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by auth_uid: %w", err)
	}

	return &p, nil
}

// Apply executes one typed patch as a single UPDATE.
func (r *profileRepository) Apply(ctx context.Context, authUID string, patch model.ProfilePatch) error {
	switch p := patch.(type) {
	case model.SetDayPatch:
		return r.applySetDay(ctx, authUID, p)
	case model.SetProgramReadPatch:
		return r.applySetProgramRead(ctx, authUID)
	case model.SetGfgProfileURLPatch:
		return r.applySetGfgProfileURL(ctx, authUID, p.URL)
	default:
		return fmt.Errorf("unsupported profile patch %T", patch)
	}
}

// applySetDay writes one slot and recomputes daily_posts_count in the same
// statement, so the persisted count can never disagree with the persisted
// slots as observed by subsequent reads.
func (r *profileRepository) applySetDay(ctx context.Context, authUID string, p model.SetDayPatch) error {
	if p.Day < 1 || p.Day > model.DayCount {
		return model.ErrInvalidDay
	}
	col := dayColumns[p.Day]

	terms := make([]string, 0, model.DayCount)
	// The slot being written counts from the bind parameter; the other six
	// count from their current column values.
	terms = append(terms, `(CASE WHEN $1::text IS NULL OR $1::text = '' THEN 0 ELSE 1 END)`)
	for d := 1; d <= model.DayCount; d++ {
		if d == p.Day {
			continue
		}
		terms = append(terms, fmt.Sprintf(
			`(CASE WHEN %s IS NULL OR %s = '' THEN 0 ELSE 1 END)`, dayColumns[d], dayColumns[d]))
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s = NULLIF($1::text, ''),
		    daily_posts_count = %s,
		    updated_at = NOW()
		WHERE auth_uid = $2
	`, col, strings.Join(terms, " + "))

	var url interface{}
	if p.URL != nil {
		url = *p.URL
	}

	result, err := r.db.ExecContext(ctx, query, url, authUID)
	if err != nil {
		return fmt.Errorf("failed to update day slot: %w", err)
	}
	return requireRow(result, fmt.Sprintf("set %s", col))
}

// applySetProgramRead marks the intro as read. Writing true over true is a
// harmless no-op, which keeps the acknowledgment idempotent while staying
// monotonic: false is never written.
func (r *profileRepository) applySetProgramRead(ctx context.Context, authUID string) error {
	query := `
		UPDATE users
		SET program_read = TRUE, updated_at = NOW()
		WHERE auth_uid = $1
	`
	result, err := r.db.ExecContext(ctx, query, authUID)
	if err != nil {
		return fmt.Errorf("failed to set program_read: %w", err)
	}
	return requireRow(result, "set program_read")
}

func (r *profileRepository) applySetGfgProfileURL(ctx context.Context, authUID, url string) error {
	query := `
		UPDATE users
		SET gfg_profile_url = $1, updated_at = NOW()
		WHERE auth_uid = $2
	`
	result, err := r.db.ExecContext(ctx, query, url, authUID)
	if err != nil {
		return fmt.Errorf("failed to set gfg_profile_url: %w", err)
	}
	return requireRow(result, "set gfg_profile_url")
}

// requireRow translates "no row matched auth_uid" into ErrProfileNotFound.
func requireRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

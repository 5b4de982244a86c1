package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// DayCount is the number of daily submission slots in the campaign.
const DayCount = 7

// RoleUser is the role every profile is created with in this flow.
const RoleUser = "user"

var validate = validator.New()

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Profile is the one-row-per-identity record in the users table. Onboarding
// attributes are written once at creation; the submission slots and
// gfg_profile_url mutate afterwards through typed patches.
type Profile struct {
	ID           int64  `db:"id" json:"id"`
	AuthUID      string `db:"auth_uid" json:"auth_uid"`
	Email        string `db:"email" json:"email"`
	FullName     string `db:"full_name" json:"full_name"`
	College      string `db:"college" json:"college"`
	Year         int    `db:"year" json:"year"`
	Branch       string `db:"branch" json:"branch"`
	Phone        string `db:"phone" json:"phone"`
	GfgUsername  string `db:"gfg_username" json:"gfg_username"`
	LinkedinURL  string `db:"linkedin_url" json:"linkedin_url"`
	InstagramURL string `db:"instagram_url" json:"instagram_url"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state"`

	// ProgramRead gates the dashboard behind the one-time program intro.
	// It only ever moves false -> true.
	ProgramRead bool `db:"program_read" json:"program_read"`

	Day1URL *string `db:"day1_url" json:"day1_url"`
	Day2URL *string `db:"day2_url" json:"day2_url"`
	Day3URL *string `db:"day3_url" json:"day3_url"`
	Day4URL *string `db:"day4_url" json:"day4_url"`
	Day5URL *string `db:"day5_url" json:"day5_url"`
	Day6URL *string `db:"day6_url" json:"day6_url"`
	Day7URL *string `db:"day7_url" json:"day7_url"`

	// DailyPostsCount always equals the number of non-empty day slots.
	// The repository recomputes it inside the same UPDATE that writes a slot.
	DailyPostsCount int `db:"daily_posts_count" json:"daily_posts_count"`

	GfgProfileURL *string `db:"gfg_profile_url" json:"gfg_profile_url"`

	Role string `db:"role" json:"role"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DayURL returns the slot value for day 1..7, or nil for an out-of-range day.
func (p *Profile) DayURL(day int) *string {
	switch day {
	case 1:
		return p.Day1URL
	case 2:
		return p.Day2URL
	case 3:
		return p.Day3URL
	case 4:
		return p.Day4URL
	case 5:
		return p.Day5URL
	case 6:
		return p.Day6URL
	case 7:
		return p.Day7URL
	}
	return nil
}

// SetDayURL writes the slot value for day 1..7 in memory. Out-of-range days
// are ignored; the service layer validates before getting here.
func (p *Profile) SetDayURL(day int, url *string) {
	switch day {
	case 1:
		p.Day1URL = url
	case 2:
		p.Day2URL = url
	case 3:
		p.Day3URL = url
	case 4:
		p.Day4URL = url
	case 5:
		p.Day5URL = url
	case 6:
		p.Day6URL = url
	case 7:
		p.Day7URL = url
	}
}

// OnboardingRequest represents the data submitted on the onboarding form.
// All ten fields are required; phone must be exactly 10 digits.
type OnboardingRequest struct {
	College      string `json:"college" validate:"required"`
	FullName     string `json:"full_name" validate:"required"`
	Year         int    `json:"year" validate:"required,min=1,max=3"`
	Branch       string `json:"branch" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	GfgUsername  string `json:"gfg_username" validate:"required"`
	LinkedinURL  string `json:"linkedin_url" validate:"required"`
	InstagramURL string `json:"instagram_url" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
}

// Validate checks every onboarding field and reports all failures at once,
// keyed by JSON field name, so the form can surface them next to each input.
func (r *OnboardingRequest) Validate() error {
	fields := make(map[string]string)

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[onboardingFieldName(fe.StructField())] = onboardingFieldMessage(fe)
			}
		} else {
			return err
		}
	}

	// Phone format is stricter than the numeric tag: exactly 10 digits,
	// no sign, no decimal point.
	if _, seen := fields["phone"]; !seen && !phonePattern.MatchString(r.Phone) {
		fields["phone"] = "Valid 10-digit phone number required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func onboardingFieldName(structField string) string {
	switch structField {
	case "College":
		return "college"
	case "FullName":
		return "full_name"
	case "Year":
		return "year"
	case "Branch":
		return "branch"
	case "Phone":
		return "phone"
	case "GfgUsername":
		return "gfg_username"
	case "LinkedinURL":
		return "linkedin_url"
	case "InstagramURL":
		return "instagram_url"
	case "City":
		return "city"
	case "State":
		return "state"
	}
	return structField
}

func onboardingFieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return onboardingFieldName(fe.StructField()) + " is required"
	case "min", "max":
		return "year must be between 1 and 3"
	}
	return "invalid value"
}

// ValidationError is a local, pre-submission failure. It never reaches the
// store and is distinguishable from backend failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// DuplicateDayError rejects a day URL already used by another slot of the
// same profile. Reported before any persistence attempt.
type DuplicateDayError struct {
	Day   int // slot being written
	Other int // slot that already holds the URL
}

func (e *DuplicateDayError) Error() string {
	return fmt.Sprintf("url for day %d is already used for day %d", e.Day, e.Other)
}

var (
	// ErrProfileNotFound is returned by mutations targeting a missing row.
	// Absence on reads is not an error: FindByAuthUID returns (nil, nil).
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when creating a profile for an identity
	// that already has one (auth_uid uniqueness violation)
	ErrProfileExists = errors.New("profile already exists for this identity")

	// ErrInvalidDay is returned for a day index outside 1..7
	ErrInvalidDay = errors.New("day must be between 1 and 7")
)

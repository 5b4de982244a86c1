// Package ledger holds the pure rules of the seven-day submission campaign:
// URL normalization, duplicate detection and progress derivation. It talks
// to nothing; services feed it the currently loaded profile.
package ledger

import (
	"strings"

	"campusmantri/internal/model"
)

// Normalize trims surrounding whitespace from a submitted URL. An empty
// result means "clear the slot".
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// DuplicateOf reports whether url (already normalized, non-empty) equals the
// value of any slot other than day. Matching is case-sensitive and exact.
// Returns the conflicting day when found.
func DuplicateOf(p *model.Profile, day int, url string) (int, bool) {
	for d := 1; d <= model.DayCount; d++ {
		if d == day {
			continue
		}
		other := p.DayURL(d)
		if other == nil {
			continue
		}
		if strings.TrimSpace(*other) == url {
			return d, true
		}
	}
	return 0, false
}

// CompletedCount derives the number of non-empty slots. This is the value
// daily_posts_count must always agree with. A nil profile (no row yet, or
// a degraded load) has zero progress.
func CompletedCount(p *model.Profile) int {
	if p == nil {
		return 0
	}
	n := 0
	for d := 1; d <= model.DayCount; d++ {
		if u := p.DayURL(d); u != nil && strings.TrimSpace(*u) != "" {
			n++
		}
	}
	return n
}

// IsComplete reports whether all seven slots are filled. Completeness is
// always derived, never stored.
func IsComplete(p *model.Profile) bool {
	return CompletedCount(p) == model.DayCount
}

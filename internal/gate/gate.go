// Package gate decides which screen a participant should be on. The state
// is a pure function of (identity, profile) recomputed from scratch after
// every relevant change; nothing here is incrementally updated.
package gate

import (
	"campusmantri/internal/ledger"
	"campusmantri/internal/model"
)

// State is the computed screen-selection state.
type State string

const (
	// Unauthenticated: no identity. Sign-in screen.
	Unauthenticated State = "unauthenticated"

	// NoProfile: identity present, no profile row yet. Onboarding form.
	NoProfile State = "no_profile"

	// IntroPending: profile exists but the program intro has not been
	// acknowledged. Program-intro screen.
	IntroPending State = "intro_pending"

	// Active: intro read, fewer than seven slots filled. Dashboard.
	Active State = "active"

	// Completed: all seven slots filled. Verification screen. Terminal for
	// this flow; only manual data correction outside the app goes back.
	Completed State = "completed"
)

// Evaluate computes the gate state. Conditions are checked in strict
// precedence order and the first match wins, so a profile without an
// identity still resolves to Unauthenticated.
func Evaluate(identity *model.Identity, profile *model.Profile) State {
	if identity == nil {
		return Unauthenticated
	}
	if profile == nil {
		return NoProfile
	}
	if !profile.ProgramRead {
		return IntroPending
	}
	if ledger.IsComplete(profile) {
		return Completed
	}
	return Active
}

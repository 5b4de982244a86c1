package model

// ProfilePatch is a typed partial update against a profile row. Each
// mutation the dashboard can perform has its own patch type, and
// ProfileRepository.Apply is the single function that turns a patch into
// an UPDATE, so a new mutation kind cannot be added without the apply
// switch handling it.
type ProfilePatch interface {
	isProfilePatch()
}

// SetDayPatch writes one submission slot. A nil URL clears the slot.
// daily_posts_count is recomputed in the same statement.
type SetDayPatch struct {
	Day int
	URL *string
}

// SetProgramReadPatch marks the program intro as read. Monotonic: the
// repository only ever writes true.
type SetProgramReadPatch struct{}

// SetGfgProfileURLPatch overwrites the GfG Connect profile link.
type SetGfgProfileURLPatch struct {
	URL string
}

func (SetDayPatch) isProfilePatch()           {}
func (SetProgramReadPatch) isProfilePatch()   {}
func (SetGfgProfileURLPatch) isProfilePatch() {}

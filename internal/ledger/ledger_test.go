package ledger

import (
	"testing"

	"campusmantri/internal/model"
)

func strPtr(s string) *string { return &s }

// profileWithDays builds a profile with the given slots filled, 1-indexed.
func profileWithDays(urls map[int]string) *model.Profile {
	p := &model.Profile{}
	for day, url := range urls {
		p.SetDayURL(day, strPtr(url))
	}
	return p
}

// =============================================================================
// NORMALIZE TESTS
// =============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain url untouched", "https://example.com/p/1", "https://example.com/p/1"},
		{"surrounding whitespace trimmed", "  https://example.com/p/1\n", "https://example.com/p/1"},
		{"whitespace-only becomes empty", "   \t ", ""},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// DUPLICATE DETECTION TESTS
// =============================================================================

func TestDuplicateOf_FindsConflictingSlot(t *testing.T) {
	p := profileWithDays(map[int]string{
		1: "https://example.com/p/1",
		3: "https://example.com/p/3",
	})

	other, dup := DuplicateOf(p, 5, "https://example.com/p/3")
	if !dup {
		t.Fatal("expected duplicate, got none")
	}
	if other != 3 {
		t.Errorf("conflicting day = %d, want 3", other)
	}
}

func TestDuplicateOf_OwnSlotIsNotADuplicate(t *testing.T) {
	// Re-submitting the same URL for the same day must be allowed.
	p := profileWithDays(map[int]string{2: "https://example.com/p/2"})

	if _, dup := DuplicateOf(p, 2, "https://example.com/p/2"); dup {
		t.Error("slot's own value should not count as a duplicate")
	}
}

func TestDuplicateOf_CaseSensitive(t *testing.T) {
	p := profileWithDays(map[int]string{1: "https://example.com/Post"})

	if _, dup := DuplicateOf(p, 2, "https://example.com/post"); dup {
		t.Error("matching is exact; differing case is not a duplicate")
	}
}

func TestDuplicateOf_EmptyProfile(t *testing.T) {
	if _, dup := DuplicateOf(&model.Profile{}, 1, "https://example.com/p/1"); dup {
		t.Error("no slots filled, nothing to conflict with")
	}
}

// =============================================================================
// PROGRESS DERIVATION TESTS
// =============================================================================

func TestCompletedCount(t *testing.T) {
	tests := []struct {
		name string
		p    *model.Profile
		want int
	}{
		{"nil profile has zero progress", nil, 0},
		{"empty profile", &model.Profile{}, 0},
		{"two filled", profileWithDays(map[int]string{1: "a", 7: "b"}), 2},
		{"gaps do not matter", profileWithDays(map[int]string{2: "a", 4: "b", 6: "c"}), 3},
		{"whitespace-only slot does not count", profileWithDays(map[int]string{1: "   "}), 0},
		{
			"all seven",
			profileWithDays(map[int]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e", 6: "f", 7: "g"}),
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletedCount(tt.p); got != tt.want {
				t.Errorf("CompletedCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsComplete(t *testing.T) {
	full := profileWithDays(map[int]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e", 6: "f", 7: "g"})
	if !IsComplete(full) {
		t.Error("seven filled slots should be complete")
	}

	almost := profileWithDays(map[int]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e", 6: "f"})
	if IsComplete(almost) {
		t.Error("six filled slots should not be complete")
	}
}

package media

import (
	"slices"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Identity
		want int
	}{
		{"season first", NewNumbered(1, 9), NewNumbered(2, 1), -1},
		{"episode within season", NewNumbered(2, 3), NewNumbered(2, 2), 1},
		{"equal numbered", NewNumbered(4, 4), NewNumbered(4, 4), 0},
		{"numbered above special", NewNumbered(1, 1), NewSpecial("OVA"), 1},
		{"special below numbered", NewSpecial("ZZZ"), NewNumbered(0, 0), -1},
		{"specials by label", NewSpecial("NCED1"), NewSpecial("NCOP1"), -1},
		{"equal specials", NewSpecial("OP"), NewSpecial("OP"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestEqualNeverCrossesKinds(t *testing.T) {
	// A special whose label renders like a numbered row is still a special.
	if NewSpecial("S01 E01").Equal(NewNumbered(1, 1)) {
		t.Error("special and numbered identities must never be equal")
	}
}

func TestSortUnique(t *testing.T) {
	ids := []Identity{
		NewNumbered(2, 1),
		NewSpecial("OVA"),
		NewNumbered(1, 2),
		NewNumbered(1, 1),
		NewNumbered(1, 2),
		NewSpecial("NCED1"),
		NewSpecial("OVA"),
		NewNumbered(1, 1),
	}

	got := SortUnique(ids)
	want := []Identity{
		NewSpecial("NCED1"),
		NewSpecial("OVA"),
		NewNumbered(1, 1),
		NewNumbered(1, 2),
		NewNumbered(2, 1),
	}

	if !slices.EqualFunc(got, want, Identity.Equal) {
		t.Fatalf("SortUnique = %v, want %v", got, want)
	}

	// Idempotent.
	again := SortUnique(slices.Clone(got))
	if !slices.EqualFunc(again, got, Identity.Equal) {
		t.Errorf("SortUnique not idempotent: %v", again)
	}
}

func TestIdentityString(t *testing.T) {
	if got := NewNumbered(1, 2).String(); got != "S01 E02" {
		t.Errorf("String() = %q, want 'S01 E02'", got)
	}
	if got := NewSpecial("NCOP 2").String(); got != "NCOP 2" {
		t.Errorf("String() = %q, want 'NCOP 2'", got)
	}
}

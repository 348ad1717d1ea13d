// Package media defines shared types for the sani application.
package media

import (
	"fmt"
	"slices"
	"time"
)

// Kind tells which variant an Identity holds.
type Kind int

const (
	Special Kind = iota
	Numbered
)

func (k Kind) String() string {
	switch k {
	case Numbered:
		return "numbered"
	case Special:
		return "special"
	default:
		return "unknown"
	}
}

// Identity identifies an episode within a series. It is either a numbered
// (season, episode) pair or a special identified by a free-text label.
// Construct values with NewNumbered or NewSpecial.
type Identity struct {
	Kind    Kind
	Season  int    // Numbered only
	Episode int    // Numbered only
	Label   string // Special only
}

// DefaultIdentity is S01E01, used whenever nothing better is known.
var DefaultIdentity = NewNumbered(1, 1)

// NewNumbered returns a numbered identity.
func NewNumbered(season, episode int) Identity {
	return Identity{Kind: Numbered, Season: season, Episode: episode}
}

// NewSpecial returns a special identity for label.
func NewSpecial(label string) Identity {
	return Identity{Kind: Special, Label: label}
}

// IsSpecial reports whether the identity is a special.
func (i Identity) IsSpecial() bool { return i.Kind == Special }

// Compare is the single total order over identities.
//
// Numbered values compare by season, then episode. Any Numbered sorts after
// any Special. Specials compare by label text.
func Compare(a, b Identity) int {
	if a.Kind != b.Kind {
		if a.Kind == Numbered {
			return 1
		}
		return -1
	}
	if a.Kind == Special {
		switch {
		case a.Label < b.Label:
			return -1
		case a.Label > b.Label:
			return 1
		}
		return 0
	}
	if a.Season != b.Season {
		if a.Season < b.Season {
			return -1
		}
		return 1
	}
	switch {
	case a.Episode < b.Episode:
		return -1
	case a.Episode > b.Episode:
		return 1
	}
	return 0
}

// Equal reports structural equality.
func (i Identity) Equal(other Identity) bool { return Compare(i, other) == 0 }

// String renders the identity the way it is shown in the picker.
func (i Identity) String() string {
	if i.Kind == Special {
		return i.Label
	}
	return fmt.Sprintf("S%02d E%02d", i.Season, i.Episode)
}

// SortUnique sorts ids by Compare and drops structurally equal duplicates.
// The input slice is reordered in place.
func SortUnique(ids []Identity) []Identity {
	slices.SortFunc(ids, Compare)
	return slices.CompactFunc(ids, Identity.Equal)
}

// Episode is a single episode file known to the catalog.
type Episode struct {
	Path     string   // Absolute path to the media file
	Series   string   // Owning series directory name
	Identity Identity // Classified identity
	Resume   int64    // Resume offset in seconds
}

// Progress is the watch state of one series.
type Progress struct {
	Series      string
	Current     Identity
	HasCurrent  bool      // false when the series was never watched
	LastWatched time.Time // zero when never watched
}

// Subtitle is a subtitle file found next to an episode.
type Subtitle struct {
	Language string // Language token from the filename, e.g. "en" or "English"
	Label    string // Display label, usually the file name
	Path     string // Local path to the subtitle file
}

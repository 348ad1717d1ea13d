package media

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// specialPatterns match non-numbered content. They are case-sensitive and
// tried in order; capture group 1 is the label.
var specialPatterns = []*regexp.Regexp{
	// [OVA], (OAD 2), " OVA3."
	regexp.MustCompile(`(?:^|[\[( ._-])((?:OVA|OAD)(?:[ _-]?\d{1,2})?)(?:[\]) ._-]|$)`),
	// Creditless opening/ending: NCOP, NCED1, NCOP 2
	regexp.MustCompile(`(NC(?:OP|ED)(?:[ _]?\d{1,2})?[a-z]?)(?:[\]) ._-]|$)`),
	// Isolated OP/ED tokens: "- OP1.", "_ED_"
	regexp.MustCompile(`(?:^|[ _-])((?:OP|ED)\d{0,2}[a-z]?)(?:[ ._-]|$)`),
}

// noisePattern matches digit runs that are never episode or season numbers.
var noisePattern = regexp.MustCompile(
	`(?i)\d{3,4}p|\b(?:2160|1080|720|576|480|360)\b|[xh]\.?26[45]|\bhevc\b|\bavc\b|10[ ._-]?bits?|\[[0-9a-f]{8}\]|[\[(](?:19|20)\d{2}[\])]`,
)

// episodePattern captures an optional season and an episode number.
var episodePattern = regexp.MustCompile(
	`(?:(?:^|[Ss])(?P<season>\d{1,2})[ ._-]*)?(?:[Ee][Pp]?|x|[ ._-])[ ._-]?(?P<episode>\d{1,2})(?:v\d*)?(?:[ ._\-\[\]()]|$)`,
)

var (
	seasonGroup  = episodePattern.SubexpIndex("season")
	episodeGroup = episodePattern.SubexpIndex("episode")
)

// Classify turns a file name into an episode identity.
//
// Specials win over numbered patterns. Names that carry no recognizable
// episode number classify as S01E01 rather than failing.
func Classify(filename string) Identity {
	name := norm.NFC.String(filepath.Base(filename))

	for _, re := range specialPatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			if label := strings.TrimSpace(m[1]); label != "" {
				return NewSpecial(label)
			}
		}
	}

	cleaned := noisePattern.ReplaceAllString(name, " ")

	m := episodePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return DefaultIdentity
	}
	episode, err := strconv.Atoi(m[episodeGroup])
	if err != nil {
		return DefaultIdentity
	}
	season := 1
	if s := m[seasonGroup]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			season = n
		}
	}
	return NewNumbered(season, episode)
}

// labelPattern matches the picker rendering of a numbered identity.
var labelPattern = regexp.MustCompile(`^S(\d+) E(\d+)$`)

// ParseLabel maps a picker row back to an identity. Rows that do not look
// like "S01 E02" are specials.
func ParseLabel(row string) Identity {
	row = strings.TrimSpace(row)
	m := labelPattern.FindStringSubmatch(row)
	if m == nil {
		return NewSpecial(row)
	}
	season, _ := strconv.Atoi(m[1])
	episode, _ := strconv.Atoi(m[2])
	return NewNumbered(season, episode)
}

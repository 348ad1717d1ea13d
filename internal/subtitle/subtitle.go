// Package subtitle finds sidecar subtitle files next to local episodes and
// picks the one matching the preferred language.
package subtitle

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"sani/internal/media"
)

var extensions = map[string]struct{}{
	".srt": {},
	".ass": {},
	".ssa": {},
	".vtt": {},
	".sub": {},
}

// flags are filename tokens that describe a track rather than its language.
var flags = map[string]struct{}{
	"sdh":    {},
	"cc":     {},
	"hi":     {},
	"forced": {},
	"full":   {},
	"signs":  {},
}

// Sidecars returns the subtitle files in the episode's directory whose name
// is the episode's stem, optionally followed by dot-separated tokens:
// "Show - 01.en.srt", "Show - 01.English.sdh.ass". A missing or unreadable
// directory yields no subtitles.
func Sidecars(fs afero.Fs, videoPath string) []media.Subtitle {
	dir := filepath.Dir(videoPath)
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}

	var subs []media.Subtitle
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == base {
			continue
		}
		ext := filepath.Ext(name)
		if _, ok := extensions[strings.ToLower(ext)]; !ok {
			continue
		}
		rest := strings.TrimSuffix(name, ext)
		if rest != stem && !strings.HasPrefix(rest, stem+".") {
			continue
		}
		subs = append(subs, media.Subtitle{
			Language: languageOf(strings.TrimPrefix(rest, stem)),
			Label:    name,
			Path:     filepath.Join(dir, name),
		})
	}
	slices.SortFunc(subs, func(a, b media.Subtitle) int { return strings.Compare(a.Label, b.Label) })
	return subs
}

// languageOf names the language of the first non-flag token in ".en.sdh".
// Codes are expanded to English names so "en", "eng" and "English" all
// match a preference of "english".
func languageOf(tokens string) string {
	for _, tok := range strings.Split(strings.Trim(tokens, "."), ".") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, ok := flags[strings.ToLower(tok)]; ok {
			continue
		}
		if len(tok) <= 3 || strings.Contains(tok, "-") {
			if tag, err := language.Parse(tok); err == nil {
				if name := display.English.Languages().Name(tag); name != "" {
					return name
				}
			}
		}
		return tok
	}
	return ""
}

// Filter returns subtitles matching the preferred language (case-insensitive).
func Filter(subtitles []media.Subtitle, preferred string) []media.Subtitle {
	if preferred == "" {
		return subtitles
	}

	lang := strings.ToLower(preferred)
	var matched []media.Subtitle

	for _, sub := range subtitles {
		if strings.Contains(strings.ToLower(sub.Language), lang) {
			matched = append(matched, sub)
		}
	}

	return matched
}

// BestMatch returns the best matching subtitle for the given language,
// preferring tracks that are not marked SDH.
func BestMatch(subtitles []media.Subtitle, preferred string) *media.Subtitle {
	filtered := Filter(subtitles, preferred)
	if len(filtered) == 0 {
		return nil
	}

	for _, sub := range filtered {
		if !strings.Contains(strings.ToLower(sub.Label), "sdh") {
			return &sub
		}
	}

	return &filtered[0]
}

// Find returns the path of the best sidecar subtitle for videoPath, or ""
// when none matches the preferred language.
func Find(fs afero.Fs, videoPath, preferred string) string {
	if preferred == "" {
		return ""
	}
	if best := BestMatch(Sidecars(fs, videoPath), preferred); best != nil {
		return best.Path
	}
	return ""
}

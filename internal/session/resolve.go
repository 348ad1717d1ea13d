package session

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// minSimilarity is the Jaro-Winkler score below which a typed name is not
// considered to name a series.
const minSimilarity = 0.85

// normalizeTitle folds a series name to lowercase ASCII words so "Shingeki
// no Kyojin", "shingeki_no_kyojin" and "Shingeki.no.Kyōjin" compare equal.
func normalizeTitle(s string) string {
	ascii := unidecode.Unidecode(norm.NFC.String(s))
	fields := strings.FieldsFunc(strings.ToLower(ascii), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// ResolveSeries maps a typed name to one of the candidate series. Exact
// names win, then normalized equality, then the shortest candidate that
// contains the query, then the closest Jaro-Winkler match.
func ResolveSeries(query string, candidates []string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return "", false
	}
	for _, c := range candidates {
		if c == query {
			return c, true
		}
	}

	q := normalizeTitle(query)
	if q == "" {
		return "", false
	}

	var contains string
	for _, c := range candidates {
		n := normalizeTitle(c)
		if n == q {
			return c, true
		}
		if strings.Contains(n, q) && (contains == "" || len(c) < len(contains)) {
			contains = c
		}
	}
	if contains != "" {
		return contains, true
	}

	var (
		best      string
		bestScore float32
	)
	for _, c := range candidates {
		score := edlib.JaroWinklerSimilarity(q, normalizeTitle(c))
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < minSimilarity {
		return "", false
	}
	return best, true
}

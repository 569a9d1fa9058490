package profiles

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a carrier or marketplace name for comparison:
// decomposed, diacritics stripped, lower-cased and whitespace collapsed.
// "  La  Poste " and "la poste" compare equal, as do "Relais Colis" and "relais-colis" after
// punctuation is turned into spaces.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// nameSet is a set of normalised names
type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	set := make(nameSet, len(names))
	for _, n := range names {
		if key := NormalizeName(n); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s nameSet) contains(name string) bool {
	key := NormalizeName(name)
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}

// findIn returns the first member of names whose normalised form occurs as whole words in text
func findIn(text string, names []string) string {
	haystack := " " + NormalizeName(text) + " "
	if haystack == "  " {
		return ""
	}
	for _, n := range names {
		needle := NormalizeName(n)
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, " "+needle+" ") {
			return n
		}
	}
	return ""
}

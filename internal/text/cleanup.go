// Package text implements the trigram text pipeline: diacritic stripping,
// whitespace folding, case folding, and trigram windowing.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks drops Unicode combining marks left behind by NFD decomposition.
var stripMarks = runes.Remove(runes.In(unicode.Mn))

// lowerFolder performs full Unicode case folding, which may expand a single
// input scalar into several output scalars (e.g. the Turkish dotted capital
// I). language.Und is used because the pipeline has no locale context.
var lowerFolder = cases.Lower(language.Und)

// Cleanup applies diacritic removal, whitespace folding and case folding to
// s, in that order, and returns the resulting scalar sequence. It never
// returns an error: a transform stage that fails passes its whole input
// through unchanged to the next stage.
func Cleanup(s string) []rune {
	decomposed, _, err := transform.String(norm.NFD, s)
	if err != nil {
		decomposed = s
	}
	stripped, _, err := transform.String(stripMarks, decomposed)
	if err != nil {
		stripped = decomposed
	}
	folded := foldWhitespace(stripped)
	lowered, _, err := transform.String(lowerFolder, folded)
	if err != nil {
		lowered = folded
	}
	return []rune(lowered)
}

// foldWhitespace collapses every maximal run of Unicode whitespace to a
// single ASCII space, dropping leading whitespace entirely and preserving
// at most one trailing space.
func foldWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	started := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun && started {
			b.WriteByte(' ')
		}
		inRun = false
		started = true
		b.WriteRune(r)
	}
	if inRun && started {
		b.WriteByte(' ')
	}
	return b.String()
}

package text

// Trigram is an ordered triple of Unicode scalar values, the index's atomic
// search key.
type Trigram [3]rune

// sentinel marks the synthetic boundary prepended and appended to every
// folded character stream before windowing.
const sentinel rune = '\x00'

// Cursor produces the trigrams of a folded rune sequence one window at a
// time. It is restartable via Reset, so the same folded text can be
// re-windowed without re-running cleanup — satisfying the pipeline's
// "cloneable" requirement without a stateful shared source.
type Cursor struct {
	runes []rune
	pos   int
}

// NewCursor wraps folded (already-cleaned) runes for trigram windowing.
func NewCursor(folded []rune) *Cursor {
	return &Cursor{runes: folded}
}

// Reset rewinds the cursor to the first trigram.
func (c *Cursor) Reset() {
	c.pos = 0
}

// at returns the scalar at virtual index i of the sentinel-padded sequence
// [NUL, runes..., NUL].
func (c *Cursor) at(i int) (rune, bool) {
	n := len(c.runes)
	switch {
	case i == 0:
		return sentinel, true
	case i == n+1:
		return sentinel, true
	case i >= 1 && i <= n:
		return c.runes[i-1], true
	default:
		return 0, false
	}
}

// Next returns the next trigram and true, or the zero value and false once
// every window has been produced.
func (c *Cursor) Next() (Trigram, bool) {
	a, ok := c.at(c.pos)
	if !ok {
		return Trigram{}, false
	}
	b, _ := c.at(c.pos + 1)
	d, ok := c.at(c.pos + 2)
	if !ok {
		return Trigram{}, false
	}
	c.pos++
	return Trigram{a, b, d}, true
}

// All drains the cursor into a slice. Convenience for callers that don't
// need the lazy interface (e.g. tests, or the query evaluator which needs
// random access to drop the first/last trigram).
func (c *Cursor) All() []Trigram {
	var out []Trigram
	for {
		t, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}

// Of returns the trigrams of s after Cleanup, as a convenience combining
// both pipeline stages.
func Of(s string) []Trigram {
	return NewCursor(Cleanup(s)).All()
}

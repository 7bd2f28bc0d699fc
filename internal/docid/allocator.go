// Package docid allocates fresh 64-bit document ids from the complement of
// the universe bitmap.
package docid

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Sequence yields every id not in the universe bitmap it was built from, in
// strictly ascending order, indefinitely. It does not mutate the universe
// bitmap it was given; callers insert each drawn id into their own working
// copy and commit it atomically with the rest of a batch.
type Sequence struct {
	gaps *roaring64.Bitmap // complement of universe within [0, maxID]
	iter roaring64.IntIterable64
	next uint64 // next candidate once gaps is exhausted
	done bool   // true once gaps has been fully drained
	hasMax bool
}

// Available builds a Sequence over the complement of universe. If universe
// is empty, the sequence yields 0, 1, 2, ….
func Available(universe *roaring64.Bitmap) *Sequence {
	if universe == nil || universe.IsEmpty() {
		return &Sequence{done: true, next: 0, hasMax: true}
	}

	maxID := universe.Maximum()
	gaps := roaring64.New()
	gaps.AddRange(0, maxID) // [0, maxID) ... maxID added explicitly below
	gaps.Add(maxID)
	gaps.AndNot(universe)

	var next uint64
	hasMax := true
	if maxID == math.MaxUint64 {
		hasMax = false
	} else {
		next = maxID + 1
	}

	return &Sequence{
		gaps:   gaps,
		iter:   gaps.Iterator(),
		next:   next,
		hasMax: hasMax,
	}
}

// Next returns the next available document id. It panics only if the
// universe already contains every value in [0, math.MaxUint64] and the gap
// portion has also been exhausted — i.e. the id space is genuinely full,
// which cannot happen in practice.
func (s *Sequence) Next() uint64 {
	if !s.done && s.iter != nil && s.iter.HasNext() {
		return s.iter.Next()
	}
	if !s.done {
		s.done = true
	}
	if !s.hasMax {
		panic("docid: id space exhausted")
	}
	id := s.next
	s.next++
	return id
}

// Package query evaluates a search string against the trigram index: it
// intersects per-trigram posting lists and ranks title matches ahead of
// content-only matches (spec.md §4.6).
package query

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/standardbeagle/croissantine/internal/store"
	"github.com/standardbeagle/croissantine/internal/text"
)

// DefaultLimit is K in spec.md §4.6 step 6.
const DefaultLimit = 20

// Hit is one ranked result: a docid resolved to its URI.
type Hit struct {
	DocID uint64
	URI   string
}

// Result is the outcome of evaluating a query: the total match count across
// both fields, and the top-K ranked hits.
type Result struct {
	Count int
	Hits  []Hit
}

// Evaluate runs the text pipeline on q, drops its sentinel-bearing first and
// last trigrams, intersects the remaining trigrams' posting lists, and
// resolves the top limit docids to URIs via rtxn. limit <= 0 uses
// DefaultLimit.
//
// Per spec.md §9 open question 1, a query that has two or fewer trigrams
// after cleanup (so dropping the first and last leaves nothing) yields an
// empty result rather than falling back to the unfiltered trigram list.
func Evaluate(rtxn *store.Txn, q string, limit int) (Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	trigrams := text.Of(q)
	if len(trigrams) <= 2 {
		return Result{}, nil
	}
	inner := trigrams[1 : len(trigrams)-1]

	titleHits, titleFound, err := intersect(rtxn, store.Title, inner)
	if err != nil {
		return Result{}, err
	}
	if !titleFound {
		titleHits = roaring64.New()
	}

	contentHits, _, err := intersect(rtxn, store.Content, inner)
	if err != nil {
		return Result{}, err
	}
	contentHits.AndNot(titleHits)

	count := int(titleHits.GetCardinality() + contentHits.GetCardinality())

	hits := make([]Hit, 0, min(limit, count))
	if err := appendHits(rtxn, titleHits, limit, &hits); err != nil {
		return Result{}, err
	}
	if err := appendHits(rtxn, contentHits, limit, &hits); err != nil {
		return Result{}, err
	}

	return Result{Count: count, Hits: hits}, nil
}

// intersect returns the intersection of every found posting list for
// trigrams in field, and whether at least one posting list was found.
func intersect(rtxn *store.Txn, field store.Field, trigrams []text.Trigram) (*roaring64.Bitmap, bool, error) {
	var acc *roaring64.Bitmap
	found := false
	for _, tri := range trigrams {
		b, ok, err := rtxn.Postings(field, tri)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		found = true
		if acc == nil {
			acc = b
			continue
		}
		acc.And(b)
	}
	if acc == nil {
		acc = roaring64.New()
	}
	return acc, found, nil
}

// appendHits resolves up to limit docids from bitmap, in ascending order,
// to their URIs, appending to hits. Docids with no recorded URI (should not
// occur under the storage invariants) are skipped.
func appendHits(rtxn *store.Txn, bitmap *roaring64.Bitmap, limit int, hits *[]Hit) error {
	it := bitmap.Iterator()
	for it.HasNext() && len(*hits) < limit {
		id := it.Next()
		uri, ok, err := rtxn.URI(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		*hits = append(*hits, Hit{DocID: id, URI: uri})
	}
	return nil
}

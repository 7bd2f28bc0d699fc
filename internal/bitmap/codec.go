// Package bitmap serializes the 64-bit roaring bitmaps used as posting
// lists and as the document-id universe.
package bitmap

import (
	"bytes"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Encode serializes b to its standard roaring wire format.
func Encode(b *roaring64.Bitmap) ([]byte, error) {
	if b == nil {
		b = roaring64.New()
	}
	var buf bytes.Buffer
	buf.Grow(int(b.GetSerializedSizeInBytes()))
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode bitmap: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes previously produced by Encode. It never returns
// a partially-populated bitmap: on error the returned bitmap is nil.
func Decode(data []byte) (*roaring64.Bitmap, error) {
	b := roaring64.New()
	if _, err := b.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}
	return b, nil
}

// DecodeOrEmpty is Decode but returns a fresh empty bitmap for nil/empty
// input, matching the storage layer's "empty bitmap if absent" contract for
// all_docids and missing posting lists.
func DecodeOrEmpty(data []byte) (*roaring64.Bitmap, error) {
	if len(data) == 0 {
		return roaring64.New(), nil
	}
	return Decode(data)
}

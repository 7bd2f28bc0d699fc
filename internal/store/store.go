// Package store is the transactional embedded key-value layer the rest of
// the core is built on: a single bbolt database exposing the four logical
// tables and the one scalar spec.md §4.3 describes, with the read/write
// transaction discipline §5 requires (one writer at a time, many concurrent
// snapshot readers).
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.etcd.io/bbolt"

	"github.com/standardbeagle/croissantine/internal/bitmap"
	"github.com/standardbeagle/croissantine/internal/task"
)

// Bucket names for the four logical tables; "main" additionally holds the
// allDocidsKey scalar.
const (
	bucketMain           = "main"
	bucketTitleNgrams    = "title-ngrams-docids"
	bucketContentNgrams  = "content-ngrams-docids"
	bucketDocidURI       = "docid-uri"
	bucketEnqueued       = "enqueued"
	allDocidsKey         = "all-docids"
)

var buckets = []string{bucketMain, bucketTitleNgrams, bucketContentNgrams, bucketDocidURI, bucketEnqueued}

// Field selects which per-trigram posting-list table an operation targets.
type Field int

const (
	Title Field = iota
	Content
)

func (f Field) bucket() string {
	if f == Title {
		return bucketTitleNgrams
	}
	return bucketContentNgrams
}

// ErrTaskNotFound names a missing task at a given priority key. No function
// in this package returns it: FirstTask reports an empty queue through its
// ok result, and DeleteTask is a no-op for an absent key.
var ErrTaskNotFound = errors.New("store: task not found")

// DB is the open database handle. It is safe for concurrent use by
// multiple readers and at most one writer, per bbolt's own discipline.
type DB struct {
	bolt *bbolt.DB
}

// OpenOrCreate opens path, creating the file and every logical table if
// they don't already exist. mapSize is bbolt's initial memory-map size
// (spec.md §6's "order of hundreds of gigabytes" environment assumption);
// bbolt grows the map past it as the file grows, so it is not an upper bound.
func OpenOrCreate(path string, mapSize int) (*DB, error) {
	opts := &bbolt.Options{InitialMmapSize: mapSize}
	bdb, err := bbolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	return &DB{bolt: bdb}, nil
}

// Close releases the underlying file and memory map.
func (d *DB) Close() error {
	return d.bolt.Close()
}

// Txn is a read-only snapshot transaction: a point-in-time view unaffected
// by concurrent writers.
type Txn struct {
	tx *bbolt.Tx
}

// WriteTxn is the single process-wide writer transaction. It embeds Txn's
// read methods and adds every mutation the core needs, so all of a batch's
// writes land in one atomic commit — the "single-writer invariant" from
// spec.md §9.
type WriteTxn struct {
	Txn
}

// ReadTxn acquires a snapshot reader. Callers must call Close when done.
func (d *DB) ReadTxn() (*Txn, error) {
	tx, err := d.bolt.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("begin read txn: %w", err)
	}
	return &Txn{tx: tx}, nil
}

// WriteTxn acquires the exclusive writer. Callers must call Commit or
// Abort when done.
func (d *DB) WriteTxn() (*WriteTxn, error) {
	tx, err := d.bolt.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("begin write txn: %w", err)
	}
	return &WriteTxn{Txn{tx: tx}}, nil
}

// Close releases a read snapshot.
func (t *Txn) Close() error {
	return t.tx.Rollback()
}

// Commit atomically applies every write made through t.
func (t *WriteTxn) Commit() error {
	return t.tx.Commit()
}

// Abort discards every write made through t. Safe to call after a partial
// failure mid-batch; nothing is persisted.
func (t *WriteTxn) Abort() error {
	return t.tx.Rollback()
}

// AllDocids returns the universe bitmap, or an empty bitmap if it has never
// been written.
func (t *Txn) AllDocids() (*roaring64.Bitmap, error) {
	main := t.tx.Bucket([]byte(bucketMain))
	return bitmap.DecodeOrEmpty(main.Get([]byte(allDocidsKey)))
}

// PutAllDocids overwrites the universe bitmap.
func (t *WriteTxn) PutAllDocids(b *roaring64.Bitmap) error {
	enc, err := bitmap.Encode(b)
	if err != nil {
		return err
	}
	main := t.tx.Bucket([]byte(bucketMain))
	return main.Put([]byte(allDocidsKey), enc)
}

func trigramKey(tri [3]rune) []byte {
	return []byte(string(tri[:]))
}

// Postings returns the posting list for trigram in the given field and
// whether the trigram has ever occurred in that field. A trigram that has
// never occurred yields an empty bitmap and found=false, distinguishing
// "no posting list at all" from "posting list found but empty" (which
// never happens in practice — see spec.md §3, posting lists are created
// on first occurrence and only grow).
func (t *Txn) Postings(field Field, tri [3]rune) (b *roaring64.Bitmap, found bool, err error) {
	bucket := t.tx.Bucket([]byte(field.bucket()))
	raw := bucket.Get(trigramKey(tri))
	b, err = bitmap.DecodeOrEmpty(raw)
	return b, raw != nil, err
}

// MergePostings unions delta into trigram's stored posting list in the
// given field, creating the entry on first occurrence. Posting lists only
// ever grow (spec.md §3).
func (t *WriteTxn) MergePostings(field Field, tri [3]rune, delta *roaring64.Bitmap) error {
	b := t.tx.Bucket([]byte(field.bucket()))
	key := trigramKey(tri)
	existing, err := bitmap.DecodeOrEmpty(b.Get(key))
	if err != nil {
		return err
	}
	existing.Or(delta)
	enc, err := bitmap.Encode(existing)
	if err != nil {
		return err
	}
	return b.Put(key, enc)
}

func docidKey(id uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id)
	return k[:]
}

// URI returns the URI assigned to docid, and whether it exists.
func (t *Txn) URI(id uint64) (string, bool, error) {
	b := t.tx.Bucket([]byte(bucketDocidURI))
	v := b.Get(docidKey(id))
	if v == nil {
		return "", false, nil
	}
	return string(v), true, nil
}

// PutURI records the URI for a freshly-assigned docid. Written once per id.
func (t *WriteTxn) PutURI(id uint64, uri string) error {
	b := t.tx.Bucket([]byte(bucketDocidURI))
	return b.Put(docidKey(id), []byte(uri))
}

func priorityKey(p uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], p)
	return k[:]
}

// FirstTask returns the smallest-priority-key task in the queue, or
// ok=false if the queue is empty.
func (t *Txn) FirstTask() (priority uint32, tk task.Task, ok bool, err error) {
	b := t.tx.Bucket([]byte(bucketEnqueued))
	k, v := b.Cursor().First()
	if k == nil {
		return 0, task.Task{}, false, nil
	}
	if err := tk.UnmarshalJSON(v); err != nil {
		return 0, task.Task{}, false, fmt.Errorf("decode queued task: %w", err)
	}
	return binary.BigEndian.Uint32(k), tk, true, nil
}

// ForEachTask walks every queued task in ascending priority-key order,
// stopping early if fn returns false.
func (t *Txn) ForEachTask(fn func(priority uint32, tk task.Task) (cont bool, err error)) error {
	b := t.tx.Bucket([]byte(bucketEnqueued))
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var tk task.Task
		if err := tk.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("decode queued task: %w", err)
		}
		cont, err := fn(binary.BigEndian.Uint32(k), tk)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// PutTask inserts or overwrites the task at priority.
func (t *WriteTxn) PutTask(priority uint32, tk task.Task) error {
	data, err := tk.MarshalJSON()
	if err != nil {
		return err
	}
	b := t.tx.Bucket([]byte(bucketEnqueued))
	return b.Put(priorityKey(priority), data)
}

// DeleteTask removes the task at priority. A no-op if absent.
func (t *WriteTxn) DeleteTask(priority uint32) error {
	b := t.tx.Bucket([]byte(bucketEnqueued))
	return b.Delete(priorityKey(priority))
}

// AvailableReverseEnqueuedID returns the largest 32-bit key K such that K is
// not present in the queue and every key in (K, math.MaxUint32] is present
// — the next slot when filling the queue from the top down. Returns
// math.MaxUint32 if the queue is empty or its top slot is free.
func (t *WriteTxn) AvailableReverseEnqueuedID() (uint32, error) {
	b := t.tx.Bucket([]byte(bucketEnqueued))
	candidate := uint32(math.MaxUint32)
	for {
		if b.Get(priorityKey(candidate)) == nil {
			return candidate, nil
		}
		if candidate == 0 {
			return 0, fmt.Errorf("store: task queue has no available reverse id")
		}
		candidate--
	}
}

// Package indexer drives one task to completion: fetch, decompress, parse
// records, extract text, compute trigram posting-list deltas, merge, and
// commit — spec.md §4.5.
package indexer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/croissantine/internal/docid"
	"github.com/standardbeagle/croissantine/internal/store"
	"github.com/standardbeagle/croissantine/internal/task"
	"github.com/standardbeagle/croissantine/internal/text"
)

// Logger receives one line of diagnostic output per call, matching the
// shape internal/debug's package-level functions already have.
type Logger func(format string, args ...any)

// Config configures an Indexer's external collaborators and tunables. Every
// field has a zero-value-safe default applied by New.
type Config struct {
	Fetcher   Fetcher
	Archive   ArchiveReader
	Extractor TextExtractor
	Log       Logger

	// Workers bounds how many records are parsed/extracted/trigrammed in
	// parallel per archive. 0 means runtime.GOMAXPROCS(0).
	Workers int
	// BackoffInterval is how long Run sleeps after finding an empty queue.
	BackoffInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.Fetcher == nil {
		c.Fetcher = NewHTTPFetcher()
	}
	if c.Archive == nil {
		c.Archive = WarcReader{}
	}
	if c.Extractor == nil {
		c.Extractor = HTMLExtractor{}
	}
	if c.Log == nil {
		c.Log = func(string, ...any) {}
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.BackoffInterval <= 0 {
		c.BackoffInterval = time.Hour
	}
}

// Indexer is the single writer that drains the task queue.
type Indexer struct {
	db  *store.DB
	cfg Config
}

// New builds an Indexer over db with the given configuration.
func New(db *store.DB, cfg Config) *Indexer {
	cfg.setDefaults()
	return &Indexer{db: db, cfg: cfg}
}

// Run loops forever, processing one task per iteration and backing off when
// the queue is empty, until ctx is cancelled. It never returns nil — the
// loop is indefinite per spec.md §6 ("never reached by the indefinite
// loop"); it returns ctx.Err() on cancellation.
func (ix *Indexer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		processed, err := ix.Step(ctx)
		if err != nil {
			ix.cfg.Log("indexer: task failed, will retry: %v", err)
		}
		if processed {
			continue
		}
		ix.cfg.Log("indexer: queue empty, backing off %s", ix.cfg.BackoffInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ix.cfg.BackoffInterval):
		}
	}
}

// Step processes at most one task: (false, nil) if the queue was empty,
// (true, err) if a task was found (whether or not it succeeded — a failed
// task's write transaction is aborted wholesale, per spec.md §4.5 step 4,
// so it remains in the queue for the next Step to retry).
func (ix *Indexer) Step(ctx context.Context) (processed bool, err error) {
	wtxn, err := ix.db.WriteTxn()
	if err != nil {
		return false, err
	}

	priority, tk, ok, err := wtxn.FirstTask()
	if err != nil {
		wtxn.Abort()
		return false, err
	}
	if !ok {
		return false, wtxn.Abort()
	}

	switch tk.Kind {
	case task.WarcPathList:
		err = ix.expandPathList(ctx, wtxn, priority, tk.URL)
	case task.WarcRecord:
		err = ix.indexRecord(ctx, wtxn, priority, tk.URL)
	default:
		err = fmt.Errorf("indexer: unknown task kind %d", tk.Kind)
	}

	if err != nil {
		wtxn.Abort()
		return true, err
	}
	return true, nil
}

// expandPathList implements spec.md §4.5's WarcPathList dispatch: fetch,
// gunzip line by line, and insert one WarcRecord child per non-empty line
// at key i (its 0-based line index), so expanded archives drain in file
// order and rank below any already-enqueued record work.
func (ix *Indexer) expandPathList(ctx context.Context, wtxn *store.WriteTxn, priority uint32, listURL string) error {
	path, size, err := ix.cfg.Fetcher.Fetch(ctx, listURL)
	if err != nil {
		return fmt.Errorf("fetch path list %s: %w", listURL, err)
	}
	ix.cfg.Log("indexer: fetched path list %s (%d bytes)", listURL, size)

	lines, err := PathListLines(path)
	if err != nil {
		return err
	}

	base, err := baseURL(listURL)
	if err != nil {
		return err
	}

	for i, line := range lines {
		if i > int(^uint32(0)) {
			return fmt.Errorf("indexer: path list %s has more than 2^32 entries", listURL)
		}
		if line == "" {
			continue
		}
		if err := wtxn.PutTask(uint32(i), task.NewRecord(base+line)); err != nil {
			return fmt.Errorf("enqueue record %d: %w", i, err)
		}
	}
	if err := wtxn.DeleteTask(priority); err != nil {
		return err
	}
	return wtxn.Commit()
}

// baseURL returns the scheme://host/ prefix of rawURL, which the spec's
// "base_url + line" convention prepends to each relative archive path.
func baseURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %s: %w", rawURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/") + "/", nil
}

// recordPair binds a freshly-drawn docid to the raw record it will become,
// assigned before parallel dispatch so id order never depends on worker
// scheduling (spec.md §4.5).
type recordPair struct {
	id  uint64
	rec Record
}

// extracted is what each worker produces for one record: nil if the record
// was skipped (spec.md §7 record-level errors).
type extracted struct {
	id              uint64
	uri             string
	titleTrigrams   []text.Trigram
	contentTrigrams []text.Trigram
}

// indexRecord implements spec.md §4.5's WarcRecord dispatch.
func (ix *Indexer) indexRecord(ctx context.Context, wtxn *store.WriteTxn, priority uint32, archiveURL string) error {
	path, size, err := ix.cfg.Fetcher.Fetch(ctx, archiveURL)
	if err != nil {
		return fmt.Errorf("fetch archive %s: %w", archiveURL, err)
	}
	ix.cfg.Log("indexer: fetched archive %s (%d bytes)", archiveURL, size)

	universe, err := wtxn.AllDocids()
	if err != nil {
		return err
	}
	seq := docid.Available(universe)

	var pairs []recordPair
	err = ix.cfg.Archive.Records(path, func(rec Record) error {
		pairs = append(pairs, recordPair{id: seq.Next(), rec: rec})
		return nil
	})
	if err != nil {
		return fmt.Errorf("parse archive %s: %w", archiveURL, err)
	}

	results := make([]*extracted, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = ix.extractOne(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return ix.mergeAndCommit(wtxn, priority, universe, results)
}

// extractOne runs readability extraction and trigram computation for one
// record. It returns nil (skip) on any record-level error, per spec.md §7:
// "skip that record silently; do not allocate a docid for it" — the docid
// was already drawn, but since it's never written to the universe bitmap
// or docid-uri table, it simply leaves a one-id gap, which the invariants
// in spec.md §3 permit (dense allocation is a property of the allocator,
// not a hard invariant).
func (ix *Indexer) extractOne(p recordPair) *extracted {
	defer p.rec.Response.Body.Close()

	var body bytes.Buffer
	if _, err := body.ReadFrom(p.rec.Response.Body); err != nil {
		return nil
	}

	title, content, err := ix.cfg.Extractor.Extract(bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil
	}

	return &extracted{
		id:              p.id,
		uri:             p.rec.URI,
		titleTrigrams:   text.Of(title),
		contentTrigrams: text.Of(content),
	}
}

// mergeAndCommit is the serial merge step: reduce every worker's trigram
// deltas into per-trigram accumulators, union them into the stored posting
// lists, write every docid→URI entry, grow the universe bitmap, delete the
// task, and commit — all inside the single write transaction, per the
// single-writer invariant (spec.md §9).
func (ix *Indexer) mergeAndCommit(wtxn *store.WriteTxn, priority uint32, universe *roaring64.Bitmap, results []*extracted) error {
	titleAcc := make(map[text.Trigram]*roaring64.Bitmap)
	contentAcc := make(map[text.Trigram]*roaring64.Bitmap)
	newIDs := roaring64.New()
	indexed := 0

	for _, r := range results {
		if r == nil {
			continue
		}
		indexed++
		newIDs.Add(r.id)
		if err := wtxn.PutURI(r.id, r.uri); err != nil {
			return err
		}
		accumulate(titleAcc, r.id, r.titleTrigrams)
		accumulate(contentAcc, r.id, r.contentTrigrams)
	}

	for tri, bm := range titleAcc {
		if err := wtxn.MergePostings(store.Title, tri, bm); err != nil {
			return err
		}
	}
	for tri, bm := range contentAcc {
		if err := wtxn.MergePostings(store.Content, tri, bm); err != nil {
			return err
		}
	}

	universe.Or(newIDs)
	if err := wtxn.PutAllDocids(universe); err != nil {
		return err
	}

	if err := wtxn.DeleteTask(priority); err != nil {
		return err
	}

	ix.cfg.Log("indexer: indexed %d of %d records", indexed, len(results))
	return wtxn.Commit()
}

func accumulate(acc map[text.Trigram]*roaring64.Bitmap, id uint64, trigrams []text.Trigram) {
	for _, tri := range trigrams {
		b, ok := acc[tri]
		if !ok {
			b = roaring64.New()
			acc[tri] = b
		}
		b.Add(id)
	}
}

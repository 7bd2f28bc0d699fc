package indexer

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/croissantine/internal/store"
	"github.com/standardbeagle/croissantine/internal/task"
)

func openTest(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenOrCreate(filepath.Join(t.TempDir(), "test.db"), 1<<20)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// gzipLines writes lines, newline-joined, gzip-compressed, to a temp file
// and returns its path.
func gzipLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	for _, l := range lines {
		_, err := gz.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	return path
}

// fakeFetcher resolves every URL to a pre-baked local path, recording every
// URL it was asked to fetch.
type fakeFetcher struct {
	paths   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, int64, error) {
	f.fetched = append(f.fetched, url)
	path, ok := f.paths[url]
	if !ok {
		return "", 0, errors.New("fakeFetcher: no path registered for " + url)
	}
	return path, 0, nil
}

// fakeArchive hands back a fixed slice of records regardless of path, and
// can be told to fail partway through to exercise the abort-without-commit
// path.
type fakeArchive struct {
	records   []Record
	failAfter int // -1 means never fail
}

func (a *fakeArchive) Records(_ string, fn func(Record) error) error {
	for i, rec := range a.records {
		if a.failAfter >= 0 && i == a.failAfter {
			return errors.New("fakeArchive: simulated mid-archive failure")
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// fakeExtractor returns the body's content verbatim as both title and text,
// so tests can assert on trigram presence without real HTML.
type fakeExtractor struct{}

func (fakeExtractor) Extract(body io.Reader) (string, string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", "", err
	}
	return string(data), string(data), nil
}

func newResponse(body string) *http.Response {
	return &http.Response{Body: io.NopCloser(bytes.NewReader([]byte(body)))}
}

// TestExpandPathListScenarioS4 reproduces spec.md's S4: a two-line path list
// with one empty line expands into WarcRecord tasks at keys 0 and 2.
func TestExpandPathListScenarioS4(t *testing.T) {
	db := openTest(t)
	listPath := gzipLines(t, "a.warc.gz", "", "b.warc.gz")

	fetcher := &fakeFetcher{paths: map[string]string{
		"https://example.com/paths.gz": listPath,
	}}
	ix := New(db, Config{Fetcher: fetcher, Archive: &fakeArchive{}, Extractor: fakeExtractor{}})

	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, wtxn.PutTask(5, task.NewPathList("https://example.com/paths.gz")))
	require.NoError(t, wtxn.Commit())

	processed, err := ix.Step(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	var queued []uint32
	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	require.NoError(t, rtxn.ForEachTask(func(priority uint32, tk task.Task) (bool, error) {
		queued = append(queued, priority)
		require.Equal(t, task.WarcRecord, tk.Kind)
		return true, nil
	}))
	require.NoError(t, rtxn.Close())

	require.Equal(t, []uint32{0, 2}, queued)
}

// TestIndexRecordIndexesAllRecords walks a fake archive of two records and
// checks the universe bitmap and docid→URI table after a successful Step.
func TestIndexRecordIndexesAllRecords(t *testing.T) {
	db := openTest(t)
	fetcher := &fakeFetcher{paths: map[string]string{
		"https://example.com/a.warc.gz": "unused",
	}}
	archive := &fakeArchive{
		failAfter: -1,
		records: []Record{
			{URI: "https://example.com/one", Response: newResponse("Hello World")},
			{URI: "https://example.com/two", Response: newResponse("Goodbye Moon")},
		},
	}
	ix := New(db, Config{Fetcher: fetcher, Archive: archive, Extractor: fakeExtractor{}})

	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, wtxn.PutTask(0, task.NewRecord("https://example.com/a.warc.gz")))
	require.NoError(t, wtxn.Commit())

	processed, err := ix.Step(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()

	universe, err := rtxn.AllDocids()
	require.NoError(t, err)
	require.Equal(t, uint64(2), universe.GetCardinality())

	_, ok0, err := rtxn.URI(0)
	require.NoError(t, err)
	require.True(t, ok0)
	_, ok1, err := rtxn.URI(1)
	require.NoError(t, err)
	require.True(t, ok1)

	_, _, ok, err := rtxn.FirstTask()
	require.NoError(t, err)
	require.False(t, ok, "task should be gone after a successful commit")
}

// TestMidArchiveFailureAbortsWithoutCommit reproduces spec.md's S6: a
// failure partway through an archive leaves the store untouched and the
// task still queued, so a restart reprocesses it from scratch with no
// double-counting.
func TestMidArchiveFailureAbortsWithoutCommit(t *testing.T) {
	db := openTest(t)
	fetcher := &fakeFetcher{paths: map[string]string{
		"https://example.com/a.warc.gz": "unused",
	}}
	archive := &fakeArchive{failAfter: 0}
	ix := New(db, Config{Fetcher: fetcher, Archive: archive, Extractor: fakeExtractor{}})

	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, wtxn.PutTask(0, task.NewRecord("https://example.com/a.warc.gz")))
	require.NoError(t, wtxn.Commit())

	processed, err := ix.Step(context.Background())
	require.Error(t, err)
	require.True(t, processed)

	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()

	universe, err := rtxn.AllDocids()
	require.NoError(t, err)
	require.Equal(t, uint64(0), universe.GetCardinality())

	_, _, ok, err := rtxn.FirstTask()
	require.NoError(t, err)
	require.True(t, ok, "failed task must remain queued for retry")
}

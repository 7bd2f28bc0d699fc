package store

import (
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/croissantine/internal/task"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := OpenOrCreate(filepath.Join(t.TempDir(), "test.db"), 1<<20)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAllDocidsEmptyByDefault(t *testing.T) {
	db := openTest(t)
	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()

	b, err := rtxn.AllDocids()
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.GetCardinality())
}

func TestPutAndReadAllDocids(t *testing.T) {
	db := openTest(t)
	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	want := roaring64.BitmapOf(1, 2, 3)
	require.NoError(t, wtxn.PutAllDocids(want))
	require.NoError(t, wtxn.Commit())

	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()
	got, err := rtxn.AllDocids()
	require.NoError(t, err)
	require.True(t, want.Equals(got))
}

func TestMergePostingsGrowsAcrossCommits(t *testing.T) {
	db := openTest(t)
	tri := [3]rune{'a', 'b', 'c'}

	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, wtxn.MergePostings(Title, tri, roaring64.BitmapOf(1, 2)))
	require.NoError(t, wtxn.Commit())

	wtxn, err = db.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, wtxn.MergePostings(Title, tri, roaring64.BitmapOf(2, 3)))
	require.NoError(t, wtxn.Commit())

	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()
	got, found, err := rtxn.Postings(Title, tri)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, roaring64.BitmapOf(1, 2, 3).Equals(got))
}

func TestURINotFound(t *testing.T) {
	db := openTest(t)
	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()
	_, ok, err := rtxn.URI(42)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTaskQueueAscendingPriorityAndDelete(t *testing.T) {
	db := openTest(t)
	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, wtxn.PutTask(5, task.NewRecord("u5")))
	require.NoError(t, wtxn.PutTask(1, task.NewRecord("u1")))
	require.NoError(t, wtxn.Commit())

	wtxn, err = db.WriteTxn()
	require.NoError(t, err)
	priority, tk, ok, err := wtxn.FirstTask()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), priority)
	require.Equal(t, "u1", tk.URL)
	require.NoError(t, wtxn.DeleteTask(priority))
	require.NoError(t, wtxn.Commit())

	rtxn, err := db.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()
	priority, _, ok, err = rtxn.FirstTask()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(5), priority)
}

func TestAvailableReverseEnqueuedIDEmptyQueue(t *testing.T) {
	db := openTest(t)
	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	defer wtxn.Abort()
	id, err := wtxn.AvailableReverseEnqueuedID()
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), id)
}

func TestAvailableReverseEnqueuedIDSkipsFromTop(t *testing.T) {
	db := openTest(t)
	wtxn, err := db.WriteTxn()
	require.NoError(t, err)
	top := uint32(0xFFFFFFFF)
	require.NoError(t, wtxn.PutTask(top, task.NewPathList("p1")))
	require.NoError(t, wtxn.PutTask(top-1, task.NewPathList("p2")))
	id, err := wtxn.AvailableReverseEnqueuedID()
	require.NoError(t, err)
	require.Equal(t, top-2, id)
	require.NoError(t, wtxn.Abort())
}

// Package queue is the thin API the admin submission endpoint and the
// indexer's bootstrap path use to enqueue work, on top of the ordering and
// persistence store.DB already provides.
package queue

import (
	"fmt"

	"github.com/standardbeagle/croissantine/internal/store"
	"github.com/standardbeagle/croissantine/internal/task"
)

// SubmitPathList enqueues a WarcPathList task for url, assigning it a key
// from the top of the 32-bit priority range downward via
// AvailableReverseEnqueuedID — so admin submissions always sort after any
// already-expanded WarcRecord work (spec.md §4.5).
func SubmitPathList(db *store.DB, url string) (priority uint32, err error) {
	wtxn, err := db.WriteTxn()
	if err != nil {
		return 0, err
	}
	defer wtxn.Abort() //nolint:errcheck // no-op once Commit has succeeded

	priority, err = wtxn.AvailableReverseEnqueuedID()
	if err != nil {
		return 0, fmt.Errorf("allocate queue slot: %w", err)
	}
	if err := wtxn.PutTask(priority, task.NewPathList(url)); err != nil {
		return 0, fmt.Errorf("enqueue path list: %w", err)
	}
	if err := wtxn.Commit(); err != nil {
		return 0, fmt.Errorf("commit enqueue: %w", err)
	}
	return priority, nil
}

// Pending describes one queued task for the admin listing page.
type Pending struct {
	Priority uint32
	Task     task.Task
}

// List returns every pending task in ascending priority-key order.
func List(db *store.DB) ([]Pending, error) {
	rtxn, err := db.ReadTxn()
	if err != nil {
		return nil, err
	}
	defer rtxn.Close()

	var out []Pending
	err = rtxn.ForEachTask(func(priority uint32, tk task.Task) (bool, error) {
		out = append(out, Pending{Priority: priority, Task: tk})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package logrecovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanukidb/pagestore/recovery"
	"github.com/tanukidb/pagestore/storage/buffer"
	"github.com/tanukidb/pagestore/storage/disk"
	serrors "github.com/tanukidb/pagestore/storage/errors"
	"github.com/tanukidb/pagestore/storage/page"
	"github.com/tanukidb/pagestore/storage/tuple"
	"github.com/tanukidb/pagestore/types"
)

// TestUncommittedInsertIsUndoneAfterCrash grounds spec.md's S5/S6 scenarios: a
// transaction inserts a tuple, logs it, but never commits before the
// "crash" (we just stop using the first buffer pool instance without an
// explicit commit record). A fresh buffer pool over the same disk.Manager
// should, after Redo+Undo, see the insert reapplied by Redo and then
// rolled back by Undo.
func TestUncommittedInsertIsUndoneAfterCrash(t *testing.T) {
	dm := disk.NewMemManager()
	defer dm.ShutDown()

	lm := recovery.NewLogManager(dm)
	bpm := buffer.NewBufferPoolManager(16, dm)
	bpm.SetLogManager(lm)

	tableFrame, err := bpm.NewPage()
	require.NoError(t, err)
	tablePage := page.NewTablePage(tableFrame)
	tablePage.Init(tableFrame.ID(), types.InvalidPageID)
	lm.AppendLogRecord(recovery.NewNewPageRecord(1, types.InvalidLSN, types.InvalidPageID, tableFrame.ID()))

	begin := lm.AppendLogRecord(recovery.NewTxnRecord(1, types.InvalidLSN, recovery.Begin))
	tup := tuple.New([]byte("uncommitted row"))
	rid, err := tablePage.InsertTuple(tup)
	require.NoError(t, err)
	insLSN := lm.AppendLogRecord(recovery.NewInsertRecord(1, begin, rid, tup))
	tableFrame.SetLSN(insLSN)

	// simulate a crash: force the log durable, but the page itself never
	// gets flushed and the transaction never commits.
	lm.ForceFlush()
	lm.Shutdown()

	// fresh buffer pool over the same (now crashed) disk store.
	bpm2 := buffer.NewBufferPoolManager(16, dm)
	rec := New(dm, bpm2)
	require.NoError(t, rec.Redo())
	require.NoError(t, rec.Undo())

	p, err := bpm2.FetchPage(tableFrame.ID())
	require.NoError(t, err)
	tp := page.NewTablePage(p)
	_, err = tp.GetTuple(rid)
	assert.ErrorIs(t, err, serrors.ErrTupleDeleted) // undo applied ApplyDelete
	bpm2.UnpinPage(tableFrame.ID(), false)
}

// TestUncommittedApplyDeleteIsUndoneAfterCrash grounds spec.md §4.5's
// APPLYDELETE undo entry: an already-committed transaction inserts a tuple;
// a second transaction marks it deleted and then applies the delete (the
// usual soft-delete-then-reclaim sequence), but crashes before committing.
// Because TablePage.ApplyDelete physically reclaims the tuple's slot
// (unlike MarkDelete's reversible bit-flip), the only correct undo is
// InsertTuple from the record's carried DeleteTuple payload, landing the
// tuple at a fresh slot rather than restoring the original one.
func TestUncommittedApplyDeleteIsUndoneAfterCrash(t *testing.T) {
	dm := disk.NewMemManager()
	defer dm.ShutDown()

	lm := recovery.NewLogManager(dm)
	bpm := buffer.NewBufferPoolManager(16, dm)
	bpm.SetLogManager(lm)

	tableFrame, err := bpm.NewPage()
	require.NoError(t, err)
	tablePage := page.NewTablePage(tableFrame)
	tablePage.Init(tableFrame.ID(), types.InvalidPageID)
	lm.AppendLogRecord(recovery.NewNewPageRecord(3, types.InvalidLSN, types.InvalidPageID, tableFrame.ID()))

	// txn 3 inserts the tuple and commits before the crash.
	beginA := lm.AppendLogRecord(recovery.NewTxnRecord(3, types.InvalidLSN, recovery.Begin))
	tup := tuple.New([]byte("row to be apply-deleted"))
	rid, err := tablePage.InsertTuple(tup)
	require.NoError(t, err)
	insLSN := lm.AppendLogRecord(recovery.NewInsertRecord(3, beginA, rid, tup))
	tableFrame.SetLSN(insLSN)
	lm.AppendLogRecord(recovery.NewTxnRecord(3, insLSN, recovery.Commit))

	// txn 4 marks it deleted, then applies (reclaims) the delete, then
	// crashes before committing.
	beginB := lm.AppendLogRecord(recovery.NewTxnRecord(4, types.InvalidLSN, recovery.Begin))
	require.NoError(t, tablePage.MarkDelete(rid))
	markLSN := lm.AppendLogRecord(recovery.NewDeleteRecord(4, beginB, recovery.MarkDelete, rid, tup))
	tableFrame.SetLSN(markLSN)

	require.NoError(t, tablePage.ApplyDelete(rid))
	delLSN := lm.AppendLogRecord(recovery.NewDeleteRecord(4, markLSN, recovery.ApplyDelete, rid, tup))
	tableFrame.SetLSN(delLSN)

	// simulate a crash: the log is durable but txn 4 never committed and
	// the page itself was never flushed.
	lm.ForceFlush()
	lm.Shutdown()

	bpm2 := buffer.NewBufferPoolManager(16, dm)
	rec := New(dm, bpm2)
	require.NoError(t, rec.Redo())
	require.NoError(t, rec.Undo())

	p, err := bpm2.FetchPage(tableFrame.ID())
	require.NoError(t, err)
	tp := page.NewTablePage(p)

	// the original slot was physically reclaimed by ApplyDelete and stays
	// that way; undo reinserts the tuple's bytes at a new slot instead.
	_, err = tp.GetTuple(rid)
	assert.ErrorIs(t, err, serrors.ErrTupleDeleted)

	found := false
	count := tp.GetTupleCount()
	for slot := uint32(0); slot < count; slot++ {
		other := page.NewRID(tableFrame.ID(), slot)
		got, err := tp.GetTuple(other)
		if err == nil && string(got.Data()) == "row to be apply-deleted" {
			found = true
			break
		}
	}
	assert.True(t, found, "apply-deleted tuple should have been reinserted by undo")
	bpm2.UnpinPage(tableFrame.ID(), false)
}

// TestCommittedInsertSurvivesRedoWithoutUndo grounds the complementary
// half of S6: a committed transaction's insert is redone and never rolled
// back because Undo only walks transactions that never committed.
func TestCommittedInsertSurvivesRedoWithoutUndo(t *testing.T) {
	dm := disk.NewMemManager()
	defer dm.ShutDown()

	lm := recovery.NewLogManager(dm)
	bpm := buffer.NewBufferPoolManager(16, dm)
	bpm.SetLogManager(lm)

	tableFrame, err := bpm.NewPage()
	require.NoError(t, err)
	tablePage := page.NewTablePage(tableFrame)
	tablePage.Init(tableFrame.ID(), types.InvalidPageID)
	lm.AppendLogRecord(recovery.NewNewPageRecord(2, types.InvalidLSN, types.InvalidPageID, tableFrame.ID()))

	begin := lm.AppendLogRecord(recovery.NewTxnRecord(2, types.InvalidLSN, recovery.Begin))
	tup := tuple.New([]byte("committed row"))
	rid, err := tablePage.InsertTuple(tup)
	require.NoError(t, err)
	insLSN := lm.AppendLogRecord(recovery.NewInsertRecord(2, begin, rid, tup))
	tableFrame.SetLSN(insLSN)
	lm.AppendLogRecord(recovery.NewTxnRecord(2, insLSN, recovery.Commit))

	lm.ForceFlush()
	lm.Shutdown()

	bpm2 := buffer.NewBufferPoolManager(16, dm)
	rec := New(dm, bpm2)
	require.NoError(t, rec.Redo())
	require.NoError(t, rec.Undo())

	p, err := bpm2.FetchPage(tableFrame.ID())
	require.NoError(t, err)
	tp := page.NewTablePage(p)
	got, err := tp.GetTuple(rid)
	require.NoError(t, err)
	assert.Equal(t, "committed row", string(got.Data()))
	bpm2.UnpinPage(tableFrame.ID(), false)
}

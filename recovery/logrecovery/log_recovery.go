// Package logrecovery implements ARIES-lite crash recovery: a forward
// Redo pass over the whole log followed by a backward Undo pass over
// every transaction that never committed or aborted before the crash.
package logrecovery

import (
	"go.uber.org/zap"

	"github.com/tanukidb/pagestore/common"
	"github.com/tanukidb/pagestore/recovery"
	"github.com/tanukidb/pagestore/storage/buffer"
	"github.com/tanukidb/pagestore/storage/page"
	"github.com/tanukidb/pagestore/types"

	"github.com/tanukidb/pagestore/storage/disk"
)

// LogRecovery replays a disk.Manager's log stream against a
// buffer.BufferPoolManager to bring the page store back to a consistent
// state after a crash. Grounded on the teacher's
// lib/recovery/log_recovery/log_recovery.go.
type LogRecovery struct {
	diskMgr disk.Manager
	bpm     *buffer.BufferPoolManager

	// activeTxn tracks, for every transaction seen but not yet committed
	// or aborted, the LSN of its most recent log record.
	activeTxn map[types.TxnID]types.LSN
	// records holds every record read during Redo, indexed by LSN, so
	// Undo can walk prevLSN chains without rescanning the log.
	records map[types.LSN]*recovery.LogRecord
}

// New returns a LogRecovery ready to replay diskMgr's log against bpm.
func New(diskMgr disk.Manager, bpm *buffer.BufferPoolManager) *LogRecovery {
	return &LogRecovery{
		diskMgr:   diskMgr,
		bpm:       bpm,
		activeTxn: make(map[types.TxnID]types.LSN),
		records:   make(map[types.LSN]*recovery.LogRecord),
	}
}

// Redo reads the whole log stream from the beginning, replaying every
// operation whose effect is not yet reflected in its target page (i.e.
// page.GetLSN() < record LSN), and records which transactions never
// reached a COMMIT/ABORT record so Undo knows what to roll back.
func (lr *LogRecovery) Redo() error {
	size := lr.diskMgr.LogSize()
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	if _, err := lr.diskMgr.ReadLog(buf, 0); err != nil {
		return err
	}

	offset := 0
	for offset+recovery.HeaderSize <= len(buf) {
		rec, err := recovery.Deserialize(buf[offset:])
		if err != nil {
			break // trailing garbage/partial write from an interrupted append
		}
		lr.records[rec.GetLSN()] = rec
		lr.applyRedo(rec)
		offset += int(rec.GetSize())
	}
	common.Log.Info("redo pass complete", zap.Int("records", len(lr.records)), zap.Int("active_txns", len(lr.activeTxn)))
	return nil
}

func (lr *LogRecovery) applyRedo(rec *recovery.LogRecord) {
	switch rec.GetType() {
	case recovery.Begin:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
	case recovery.Commit, recovery.Abort:
		delete(lr.activeTxn, rec.GetTxnID())
	case recovery.Insert:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
		lr.withTablePage(rec.InsertRID.GetPageId(), rec.GetLSN(), func(tp *page.TablePage) {
			tp.InsertTuple(rec.InsertTuple)
		})
	case recovery.MarkDelete:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
		lr.withTablePage(rec.DeleteRID.GetPageId(), rec.GetLSN(), func(tp *page.TablePage) {
			tp.MarkDelete(rec.DeleteRID)
		})
	case recovery.ApplyDelete:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
		lr.withTablePage(rec.DeleteRID.GetPageId(), rec.GetLSN(), func(tp *page.TablePage) {
			tp.ApplyDelete(rec.DeleteRID)
		})
	case recovery.RollbackDelete:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
		lr.withTablePage(rec.DeleteRID.GetPageId(), rec.GetLSN(), func(tp *page.TablePage) {
			tp.RollbackDelete(rec.DeleteRID)
		})
	case recovery.Update:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
		lr.withTablePage(rec.UpdateRID.GetPageId(), rec.GetLSN(), func(tp *page.TablePage) {
			tp.UpdateTuple(rec.UpdateRID, rec.NewTuple)
		})
	case recovery.NewPage:
		lr.activeTxn[rec.GetTxnID()] = rec.GetLSN()
		lr.redoNewPage(rec)
	}
}

// withTablePage fetches pageID, applies fn if the page's current LSN
// predates rec's LSN (meaning this operation's effect isn't on disk yet),
// stamps the page with rec's LSN, and unpins it dirty.
func (lr *LogRecovery) withTablePage(pageID types.PageID, lsn types.LSN, fn func(tp *page.TablePage)) {
	p, err := lr.bpm.FetchPage(pageID)
	if err != nil {
		return
	}
	tp := page.NewTablePage(p)
	if p.GetLSN() < lsn {
		fn(tp)
		p.SetLSN(lsn)
		lr.bpm.UnpinPage(pageID, true)
	} else {
		lr.bpm.UnpinPage(pageID, false)
	}
}

func (lr *LogRecovery) redoNewPage(rec *recovery.LogRecord) {
	p, err := lr.bpm.FetchPage(rec.PageID)
	if err != nil {
		return
	}
	tp := page.NewTablePage(p)
	if p.GetLSN() < rec.GetLSN() {
		tp.Init(rec.PageID, rec.PrevPageID)
		p.SetLSN(rec.GetLSN())
	}
	lr.bpm.UnpinPage(rec.PageID, true)

	if rec.PrevPageID.IsValid() {
		prevP, err := lr.bpm.FetchPage(rec.PrevPageID)
		if err == nil {
			prevTP := page.NewTablePage(prevP)
			if !prevTP.GetNextPageId().IsValid() {
				prevTP.SetNextPageId(rec.PageID)
			}
			lr.bpm.UnpinPage(rec.PrevPageID, true)
		}
	}
}

// Undo rolls back every transaction Redo found still active (no COMMIT or
// ABORT record), walking each one's prevLSN chain back to BEGIN and
// applying the inverse of every operation it performed.
func (lr *LogRecovery) Undo() error {
	for txnID, lastLSN := range lr.activeTxn {
		lsn := lastLSN
		for lsn != types.InvalidLSN {
			rec, ok := lr.records[lsn]
			if !ok {
				break
			}
			lr.applyUndo(rec)
			lsn = rec.GetPrevLSN()
		}
		common.Log.Info("undo complete for transaction", zap.Int32("txn_id", int32(txnID)))
	}
	return nil
}

func (lr *LogRecovery) applyUndo(rec *recovery.LogRecord) {
	switch rec.GetType() {
	case recovery.Insert:
		lr.withTablePageUnconditional(rec.InsertRID.GetPageId(), func(tp *page.TablePage) {
			tp.ApplyDelete(rec.InsertRID)
		})
	case recovery.ApplyDelete:
		// ApplyDelete physically reclaims the tuple's slot (offset/size
		// zeroed, bytes compacted out), so there is nothing left at the old
		// slot to roll back to. The only correct undo is to reinsert the
		// tuple bytes the APPLYDELETE record carries, which lands at a new
		// slot rather than the original one.
		lr.withTablePageUnconditional(rec.DeleteRID.GetPageId(), func(tp *page.TablePage) {
			tp.InsertTuple(rec.DeleteTuple)
		})
	case recovery.MarkDelete:
		lr.withTablePageUnconditional(rec.DeleteRID.GetPageId(), func(tp *page.TablePage) {
			tp.RollbackDelete(rec.DeleteRID)
		})
	case recovery.RollbackDelete:
		lr.withTablePageUnconditional(rec.DeleteRID.GetPageId(), func(tp *page.TablePage) {
			tp.MarkDelete(rec.DeleteRID)
		})
	case recovery.Update:
		lr.withTablePageUnconditional(rec.UpdateRID.GetPageId(), func(tp *page.TablePage) {
			tp.UpdateTuple(rec.UpdateRID, rec.OldTuple)
		})
	}
}

func (lr *LogRecovery) withTablePageUnconditional(pageID types.PageID, fn func(tp *page.TablePage)) {
	p, err := lr.bpm.FetchPage(pageID)
	if err != nil {
		return
	}
	fn(page.NewTablePage(p))
	lr.bpm.UnpinPage(pageID, true)
}

package page

import (
	"encoding/binary"

	serrors "github.com/tanukidb/pagestore/storage/errors"
	"github.com/tanukidb/pagestore/storage/tuple"
	"github.com/tanukidb/pagestore/types"
)

// TablePage is a slotted page: a fixed header, a growing array of
// (tuple offset, tuple size) slots, and tuple bytes packed backward from
// the end of the page. It is the minimal surface spec'd operations need —
// it has no lock manager, transaction, or schema coupling, unlike the
// teacher's table_page.go which threads all three through every method.
//
// Layout:
//
//	0  PageId          (4)
//	4  LSN             (4)   (shared with Page.GetLSN/SetLSN)
//	8  PrevPageId      (4)
//	12 NextPageId      (4)
//	16 FreeSpacePointer(4)
//	20 TupleCount      (4)
//	24 [Offset(4) Size(4)]*TupleCount
//	...
//	PageSize-N  tuple bytes, packed backward from the end
const (
	offsetPageID         = 0
	offsetPrevPageID      = 8
	offsetNextPageID      = 12
	offsetFreeSpacePointer = 16
	offsetTupleCount      = 20
	sizeTablePageHeader   = 24
	sizeSlotEntry         = 8

	// deleteMask flags a slot's size field as holding a mark-deleted tuple
	// (still present on disk, not yet reclaimed).
	deleteMask uint32 = 1 << 31
)

// TablePage wraps a frame and gives it slotted-page semantics.
type TablePage struct {
	*Page
}

// NewTablePage wraps an existing frame as a table page. Call Init on it
// if the frame is brand new.
func NewTablePage(p *Page) *TablePage { return &TablePage{Page: p} }

// Init formats a freshly allocated frame as an empty table page, chaining
// it after prevPageID (InvalidPageID if this is the first page).
func (tp *TablePage) Init(pageID types.PageID, prevPageID types.PageID) {
	tp.SetTablePageID(pageID)
	tp.SetPrevPageId(prevPageID)
	tp.SetNextPageId(types.InvalidPageID)
	tp.setFreeSpacePointer(PageSize)
	tp.setTupleCount(0)
}

func (tp *TablePage) le32(off int) uint32 {
	return binary.LittleEndian.Uint32(tp.data[off : off+4])
}
func (tp *TablePage) setLE32(off int, v uint32) {
	binary.LittleEndian.PutUint32(tp.data[off:off+4], v)
}

func (tp *TablePage) GetTablePageID() types.PageID { return types.PageID(tp.le32(offsetPageID)) }
func (tp *TablePage) SetTablePageID(id types.PageID) { tp.setLE32(offsetPageID, uint32(id)) }

func (tp *TablePage) GetPrevPageId() types.PageID   { return types.PageID(tp.le32(offsetPrevPageID)) }
func (tp *TablePage) SetPrevPageId(id types.PageID) { tp.setLE32(offsetPrevPageID, uint32(id)) }

func (tp *TablePage) GetNextPageId() types.PageID   { return types.PageID(tp.le32(offsetNextPageID)) }
func (tp *TablePage) SetNextPageId(id types.PageID) { tp.setLE32(offsetNextPageID, uint32(id)) }

func (tp *TablePage) getFreeSpacePointer() uint32 { return tp.le32(offsetFreeSpacePointer) }
func (tp *TablePage) setFreeSpacePointer(v uint32) { tp.setLE32(offsetFreeSpacePointer, v) }

func (tp *TablePage) getTupleCount() uint32  { return tp.le32(offsetTupleCount) }
func (tp *TablePage) setTupleCount(v uint32) { tp.setLE32(offsetTupleCount, v) }

func (tp *TablePage) slotOffsetOff(slot uint32) int {
	return sizeTablePageHeader + int(slot)*sizeSlotEntry
}
func (tp *TablePage) slotSizeOff(slot uint32) int {
	return tp.slotOffsetOff(slot) + 4
}

func (tp *TablePage) getTupleOffsetAtSlot(slot uint32) uint32 { return tp.le32(tp.slotOffsetOff(slot)) }
func (tp *TablePage) setTupleOffsetAtSlot(slot uint32, v uint32) {
	tp.setLE32(tp.slotOffsetOff(slot), v)
}

func (tp *TablePage) getTupleSizeAtSlot(slot uint32) uint32 { return tp.le32(tp.slotSizeOff(slot)) }
func (tp *TablePage) setTupleSizeAtSlot(slot uint32, v uint32) {
	tp.setLE32(tp.slotSizeOff(slot), v)
}

// isDeleted reports a slot as deleted both when its delete-mask bit is set
// (MarkDelete) and when its size has been zeroed out (ApplyDelete, which
// physically reclaims the slot's bytes and offset), matching the teacher's
// storage/access/table_page.go IsDeleted.
func isDeleted(size uint32) bool     { return size&deleteMask != 0 || size == 0 }
func withDeleted(size uint32) uint32 { return size | deleteMask }
func sizeOf(size uint32) uint32      { return size &^ deleteMask }

func (tp *TablePage) freeSpaceRemaining() uint32 {
	return tp.getFreeSpacePointer() - uint32(sizeTablePageHeader) - tp.getTupleCount()*sizeSlotEntry
}

// InsertTuple appends t to the page, returning its RID. It returns
// ErrTupleTooLarge if the page has no room for it and a new slot.
func (tp *TablePage) InsertTuple(t tuple.Tuple) (RID, error) {
	size := uint32(len(t.Data()))
	if size+sizeSlotEntry > tp.freeSpaceRemaining() {
		return RID{}, serrors.ErrTupleTooLarge
	}
	slot := tp.getTupleCount()
	newFree := tp.getFreeSpacePointer() - size
	tp.setFreeSpacePointer(newFree)
	copy(tp.data[newFree:newFree+size], t.Data())
	tp.setTupleOffsetAtSlot(slot, newFree)
	tp.setTupleSizeAtSlot(slot, size)
	tp.setTupleCount(slot + 1)
	return NewRID(tp.GetTablePageID(), slot), nil
}

// GetTuple returns the tuple stored at rid's slot.
func (tp *TablePage) GetTuple(rid RID) (tuple.Tuple, error) {
	slot := rid.GetSlotNum()
	if slot >= tp.getTupleCount() {
		return tuple.Tuple{}, serrors.ErrInvalidSlot
	}
	rawSize := tp.getTupleSizeAtSlot(slot)
	if isDeleted(rawSize) {
		return tuple.Tuple{}, serrors.ErrTupleDeleted
	}
	off := tp.getTupleOffsetAtSlot(slot)
	size := sizeOf(rawSize)
	t := tuple.New(tp.data[off : off+size])
	t.SetRID(rid)
	return t, nil
}

// MarkDelete flags rid's tuple as deleted without reclaiming its space,
// so an abort can RollbackDelete it back to visible.
func (tp *TablePage) MarkDelete(rid RID) error {
	slot := rid.GetSlotNum()
	if slot >= tp.getTupleCount() {
		return serrors.ErrInvalidSlot
	}
	size := tp.getTupleSizeAtSlot(slot)
	if isDeleted(size) {
		return serrors.ErrTupleDeleted
	}
	tp.setTupleSizeAtSlot(slot, withDeleted(size))
	return nil
}

// RollbackDelete undoes a MarkDelete, making the tuple visible again.
func (tp *TablePage) RollbackDelete(rid RID) error {
	slot := rid.GetSlotNum()
	if slot >= tp.getTupleCount() {
		return serrors.ErrInvalidSlot
	}
	size := tp.getTupleSizeAtSlot(slot)
	tp.setTupleSizeAtSlot(slot, sizeOf(size))
	return nil
}

// ApplyDelete makes a delete permanent: unlike MarkDelete, it physically
// reclaims the tuple's bytes, memmoving every tuple written after it
// (i.e. with a smaller offset — tuples pack backward from the page end)
// forward to close the gap, then fixing up their slot offsets. The freed
// slot's offset and size are zeroed, which isDeleted also treats as
// deleted. Matches the teacher's storage/access/table_page.go ApplyDelete;
// undoing it requires reinserting the tuple (its old slot no longer holds
// any data to roll back to), which is exactly what recovery/logrecovery's
// undo does with the tuple bytes carried in the APPLYDELETE log record.
func (tp *TablePage) ApplyDelete(rid RID) error {
	slot := rid.GetSlotNum()
	if slot >= tp.getTupleCount() {
		return serrors.ErrInvalidSlot
	}
	tupleOffset := tp.getTupleOffsetAtSlot(slot)
	tupleSize := sizeOf(tp.getTupleSizeAtSlot(slot))

	freeSpacePointer := tp.getFreeSpacePointer()
	copy(tp.data[freeSpacePointer+tupleSize:tupleOffset+tupleSize], tp.data[freeSpacePointer:tupleOffset])
	tp.setFreeSpacePointer(freeSpacePointer + tupleSize)
	tp.setTupleSizeAtSlot(slot, 0)
	tp.setTupleOffsetAtSlot(slot, 0)

	count := tp.getTupleCount()
	for i := uint32(0); i < count; i++ {
		otherOffset := tp.getTupleOffsetAtSlot(i)
		if tp.getTupleSizeAtSlot(i) != 0 && otherOffset < tupleOffset {
			tp.setTupleOffsetAtSlot(i, otherOffset+tupleSize)
		}
	}
	return nil
}

// UpdateTuple replaces rid's tuple with newTuple in place when it fits in
// the old tuple's slot, returning the previous content as oldTuple for the
// caller to log. It does not support growing a tuple past its original
// size; callers needing that should delete-then-insert instead.
func (tp *TablePage) UpdateTuple(rid RID, newTuple tuple.Tuple) (oldTuple tuple.Tuple, err error) {
	slot := rid.GetSlotNum()
	if slot >= tp.getTupleCount() {
		return tuple.Tuple{}, serrors.ErrInvalidSlot
	}
	rawSize := tp.getTupleSizeAtSlot(slot)
	if isDeleted(rawSize) {
		return tuple.Tuple{}, serrors.ErrTupleDeleted
	}
	off := tp.getTupleOffsetAtSlot(slot)
	oldSize := sizeOf(rawSize)
	old := make([]byte, oldSize)
	copy(old, tp.data[off:off+oldSize])
	oldT := tuple.New(old)
	oldT.SetRID(rid)

	newData := newTuple.Data()
	if uint32(len(newData)) > oldSize {
		return oldT, serrors.ErrTupleTooLarge
	}
	copy(tp.data[off:off+uint32(len(newData))], newData)
	tp.setTupleSizeAtSlot(slot, uint32(len(newData)))
	return oldT, nil
}

// GetTupleCount returns the number of slots ever allocated on this page,
// including deleted ones.
func (tp *TablePage) GetTupleCount() uint32 { return tp.getTupleCount() }

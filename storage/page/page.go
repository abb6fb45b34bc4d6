// Package page defines the in-memory page frame and the on-disk page
// layouts (hash table header/block pages, table heap slotted pages) that
// sit behind the buffer pool.
package page

import (
	"encoding/binary"

	"github.com/tanukidb/pagestore/common"
	"github.com/tanukidb/pagestore/types"
)

// PageSize is the fixed size of a page frame's backing array.
const PageSize = common.PageSize

// offsetLSN is where a page's own LSN is stored within its first bytes,
// right after the 4-byte page id slot most on-disk page layouts reserve.
// Keeping the LSN inside the page bytes (rather than as a separate struct
// field) means it round-trips through disk I/O for free, matching the
// teacher's lib/storage/page/page.go layout.
const offsetLSN = 4

// OffsetLSN exposes offsetLSN to disk.Manager implementations, which need
// to stamp InvalidLSN into a page's bytes when a read misses (the page was
// allocated but never written) so recovery's "page LSN < record LSN"
// redo check treats it as strictly older than every real log record —
// a zero-filled page would otherwise read back as LSN 0, indistinguishable
// from a page genuinely stamped by the record with LSN 0.
const OffsetLSN = offsetLSN

// FreshPageBytes returns a PageSize-byte array representing a page that
// was allocated but never written: zeroed except for its LSN, which reads
// back as types.InvalidLSN.
func FreshPageBytes() [PageSize]byte {
	var b [PageSize]byte
	invalidLSN := int32(types.InvalidLSN)
	binary.LittleEndian.PutUint32(b[OffsetLSN:OffsetLSN+4], uint32(invalidLSN))
	return b
}

// Page is a frame in the buffer pool: PageSize bytes of page data plus the
// bookkeeping the buffer pool needs to decide whether the frame can be
// evicted.
type Page struct {
	id       types.PageID
	pinCount int32
	isDirty  bool
	data     [PageSize]byte
	latch    common.RWLatch
}

// New wraps id and data into a fresh, unpinned, clean frame.
func New(id types.PageID, data [PageSize]byte) *Page {
	return &Page{id: id, data: data}
}

// NewEmpty returns a fresh frame for id with no page_lsn stamped yet.
func NewEmpty(id types.PageID) *Page {
	return &Page{id: id, data: FreshPageBytes()}
}

func (p *Page) ID() types.PageID { return p.id }
func (p *Page) SetID(id types.PageID) { p.id = id }

func (p *Page) Data() *[PageSize]byte { return &p.data }

func (p *Page) IsDirty() bool        { return p.isDirty }
func (p *Page) SetIsDirty(dirty bool) { p.isDirty = dirty }

func (p *Page) PinCount() int32 { return p.pinCount }
func (p *Page) IncPinCount()    { p.pinCount++ }
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// GetLSN returns the LSN stamped into this page's own bytes: the highest
// LSN of any log record whose effect is reflected in the page's current
// content.
func (p *Page) GetLSN() types.LSN {
	return types.LSN(int32(binary.LittleEndian.Uint32(p.data[offsetLSN : offsetLSN+4])))
}

// SetLSN stamps lsn into the page's own bytes.
func (p *Page) SetLSN(lsn types.LSN) {
	binary.LittleEndian.PutUint32(p.data[offsetLSN:offsetLSN+4], uint32(int32(lsn)))
}

// le32/setLE32 are generic little-endian accessors used by every on-disk
// page layout built on top of a frame (table pages, hash index pages).
func (p *Page) le32(off int) uint32 {
	return binary.LittleEndian.Uint32(p.data[off : off+4])
}
func (p *Page) setLE32(off int, v uint32) {
	binary.LittleEndian.PutUint32(p.data[off:off+4], v)
}

// Copy overwrites the page's data starting at offset with src.
func (p *Page) Copy(offset int, src []byte) {
	copy(p.data[offset:], src)
}

// ResetMemory zeroes the page's data, including its LSN bytes.
func (p *Page) ResetMemory() {
	p.data = [PageSize]byte{}
}

func (p *Page) WLatch()   { p.latch.WLock() }
func (p *Page) WUnlatch() { p.latch.WUnlock() }
func (p *Page) RLatch()   { p.latch.RLock() }
func (p *Page) RUnlatch() { p.latch.RUnlock() }

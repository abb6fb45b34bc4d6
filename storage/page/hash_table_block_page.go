package page

import (
	pair "github.com/notEpsilon/go-pair"
)

// BlockArraySize is the number of (key, value) slots a single block page
// holds. Sized so the 8-byte page id/LSN prefix, two occupied/readable
// bitmaps and BlockArraySize pair.Pair[uint64,uint64] slots (16 bytes each)
// fit inside PageSize: 8 + 2*ceil(250/8) + 250*16 = 8 + 64 + 4000 = 4072 <= 4096.
const BlockArraySize = 250

const bitmapBytes = (BlockArraySize + 7) / 8

// pairSize is the encoded width of one Mapping slot (key + value, 8 bytes
// each).
const pairSize = 16

// blockHeaderSize skips the page id and page LSN slots every frame keeps in
// its first 8 bytes, so the bitmaps never overlap the LSN that
// Page.GetLSN/SetLSN read and write.
const blockHeaderSize = offsetLSN + 4

const (
	offsetOccupied = blockHeaderSize
	offsetReadable = offsetOccupied + bitmapBytes
	offsetArray    = offsetReadable + bitmapBytes
)

// Mapping is a hash index key/value slot, backed by go-pair's generic pair
// type instead of a bespoke struct, matching notEpsilon/go-pair's role
// elsewhere in the retrieved example pack.
type Mapping = *pair.Pair[uint64, uint64]

// BlockPage is one bucket page of the linear-probing hash index: a bitmap
// of ever-occupied slots, a bitmap of currently-readable slots, and the
// key/value array itself.
type BlockPage struct {
	*Page
}

func NewBlockPage(p *Page) *BlockPage { return &BlockPage{Page: p} }

func (b *BlockPage) bitSet(base, slot uint32) bool {
	byteOff := base + slot/8
	bit := byte(1) << (slot % 8)
	return b.data[byteOff]&bit != 0
}

func (b *BlockPage) bitSetOn(base, slot uint32) {
	byteOff := base + slot/8
	bit := byte(1) << (slot % 8)
	b.data[byteOff] |= bit
}

func (b *BlockPage) bitSetOff(base, slot uint32) {
	byteOff := base + slot/8
	bit := byte(1) << (slot % 8)
	b.data[byteOff] &^= bit
}

// IsOccupied reports whether slot has ever held an entry (set on first
// insert, never cleared — this is what keeps probe chains intact across
// deletes).
func (b *BlockPage) IsOccupied(slot uint32) bool { return b.bitSet(offsetOccupied, slot) }

// IsReadable reports whether slot currently holds a live entry.
func (b *BlockPage) IsReadable(slot uint32) bool { return b.bitSet(offsetReadable, slot) }

func (b *BlockPage) slotOffset(slot uint32) int { return offsetArray + int(slot)*pairSize }

// KeyAt returns the key stored at slot. Only meaningful if IsOccupied.
func (b *BlockPage) KeyAt(slot uint32) uint64 {
	off := b.slotOffset(slot)
	return b.le64(off)
}

// ValueAt returns the value stored at slot. Only meaningful if IsOccupied.
func (b *BlockPage) ValueAt(slot uint32) uint64 {
	off := b.slotOffset(slot)
	return b.le64(off + 8)
}

func (b *BlockPage) le64(off int) uint64 {
	lo := uint64(b.le32(off))
	hi := uint64(b.le32(off + 4))
	return lo | hi<<32
}
func (b *BlockPage) setLE64(off int, v uint64) {
	b.setLE32(off, uint32(v))
	b.setLE32(off+4, uint32(v>>32))
}

// Insert writes (key, value) into slot, marking it occupied and readable.
// It never checks for duplicates or free space; callers (container/hash.HashTable)
// own the probe sequence and duplicate detection.
func (b *BlockPage) Insert(slot uint32, key, value uint64) {
	off := b.slotOffset(slot)
	b.setLE64(off, key)
	b.setLE64(off+8, value)
	b.bitSetOn(offsetOccupied, slot)
	b.bitSetOn(offsetReadable, slot)
}

// Remove clears slot's readable bit only — the occupied bit stays set so
// later probes keep walking past this slot instead of stopping short.
func (b *BlockPage) Remove(slot uint32) {
	b.bitSetOff(offsetReadable, slot)
}

// PairAt returns slot's contents as a Mapping, for callers that want the
// pair as a unit.
func (b *BlockPage) PairAt(slot uint32) Mapping {
	return pair.New(b.KeyAt(slot), b.ValueAt(slot))
}

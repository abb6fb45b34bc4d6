// Package hash implements an on-disk, linear-probing hash index over a
// buffer pool: a header page listing block pages, each block page holding
// a bitmap-tracked array of (key, value) slots.
package hash

import (
	"github.com/tanukidb/pagestore/common"
	"github.com/tanukidb/pagestore/storage/buffer"
	serrors "github.com/tanukidb/pagestore/storage/errors"
	"github.com/tanukidb/pagestore/storage/page"
	"github.com/tanukidb/pagestore/types"
)

const slotsPerBlock = page.BlockArraySize

// HashTable is a linear-probing hash index whose address space grows
// through Resize. Its public methods (GetValue/Insert/Remove/Resize) each
// take the table latch; insertLocked/resizeLocked assume it is already held,
// which is what lets Insert call Resize without deadlocking on its own
// latch — the reentrancy bug spec.md calls out is fixed by making the
// "latch already held" contract explicit instead of accidental.
type HashTable struct {
	bpm          *buffer.BufferPoolManager
	headerPageID types.PageID
	capacity     uint32
	latch        common.RWLatch
}

// NewLinearProbeHashTable creates a fresh index with room for at least
// initialSize slots.
func NewLinearProbeHashTable(bpm *buffer.BufferPoolManager, initialSize uint32) (*HashTable, error) {
	headerFrame, err := bpm.NewPage()
	if err != nil {
		return nil, err
	}
	header := page.NewHeaderPage(headerFrame)
	header.Init(headerFrame.ID())

	t := &HashTable{bpm: bpm, headerPageID: headerFrame.ID()}
	if err := bpm.UnpinPage(headerFrame.ID(), true); err != nil {
		return nil, err
	}
	if initialSize == 0 {
		initialSize = common.BucketSizeOfHashIndex
	}
	if err := t.Resize(initialSize); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *HashTable) fetchHeader() (*page.HeaderPage, error) {
	p, err := t.bpm.FetchPage(t.headerPageID)
	if err != nil {
		return nil, err
	}
	return page.NewHeaderPage(p), nil
}

func (t *HashTable) fetchBlock(id types.PageID) (*page.BlockPage, error) {
	p, err := t.bpm.FetchPage(id)
	if err != nil {
		return nil, err
	}
	return page.NewBlockPage(p), nil
}

// GetValue returns every value stored under key.
func (t *HashTable) GetValue(key uint64) ([]uint64, error) {
	t.latch.RLock()
	defer t.latch.RUnlock()

	header, err := t.fetchHeader()
	if err != nil {
		return nil, err
	}
	defer t.bpm.UnpinPage(t.headerPageID, false)

	hashVal := hashKey(key) % uint64(t.capacity)
	bucketID := uint32(hashVal / slotsPerBlock)
	slotIdx := uint32(hashVal % slotsPerBlock)

	if bucketID >= header.NumBlocks() {
		return nil, nil
	}
	blockID := header.GetBlockPageId(bucketID)
	block, err := t.fetchBlock(blockID)
	if err != nil {
		return nil, err
	}

	var results []uint64
	for block.IsOccupied(slotIdx) {
		if block.IsReadable(slotIdx) && block.KeyAt(slotIdx) == key {
			results = append(results, block.ValueAt(slotIdx))
		}
		slotIdx++
		if slotIdx >= slotsPerBlock {
			t.bpm.UnpinPage(blockID, false)
			bucketID++
			if bucketID >= header.NumBlocks() {
				return results, nil
			}
			blockID = header.GetBlockPageId(bucketID)
			block, err = t.fetchBlock(blockID)
			if err != nil {
				return results, err
			}
			slotIdx = 0
		}
	}
	t.bpm.UnpinPage(blockID, false)
	return results, nil
}

// Insert adds (key, value). It fails with ErrDuplicateEntry if the exact
// pair is already present, growing the index automatically if every slot
// on the current probe chain is occupied by a live entry.
func (t *HashTable) Insert(key, value uint64) error {
	t.latch.WLock()
	defer t.latch.WUnlock()
	return t.insertLocked(key, value)
}

func (t *HashTable) insertLocked(key, value uint64) error {
	header, err := t.fetchHeader()
	if err != nil {
		return err
	}

	hashVal := hashKey(key) % uint64(t.capacity)
	bucketID := uint32(hashVal / slotsPerBlock)
	slotIdx := uint32(hashVal % slotsPerBlock)

	blockID := header.GetBlockPageId(bucketID)
	block, err := t.fetchBlock(blockID)
	if err != nil {
		t.bpm.UnpinPage(t.headerPageID, false)
		return err
	}

	for block.IsReadable(slotIdx) {
		if block.KeyAt(slotIdx) == key && block.ValueAt(slotIdx) == value {
			t.bpm.UnpinPage(blockID, false)
			t.bpm.UnpinPage(t.headerPageID, false)
			return serrors.ErrDuplicateEntry
		}
		slotIdx++
		if slotIdx >= slotsPerBlock {
			t.bpm.UnpinPage(blockID, false)
			bucketID++
			if bucketID >= header.NumBlocks() {
				t.bpm.UnpinPage(t.headerPageID, false)
				if err := t.resizeLocked(t.capacity * 2); err != nil {
					return err
				}
				return t.insertLocked(key, value)
			}
			blockID = header.GetBlockPageId(bucketID)
			block, err = t.fetchBlock(blockID)
			if err != nil {
				t.bpm.UnpinPage(t.headerPageID, false)
				return err
			}
			slotIdx = 0
		}
	}

	block.Insert(slotIdx, key, value)
	t.bpm.UnpinPage(blockID, true)
	t.bpm.UnpinPage(t.headerPageID, false)
	return nil
}

// Remove deletes the (key, value) pair if present. It is a no-op (not an
// error) if the pair is absent, matching the probe contract: absence of a
// match after walking the whole occupied run just means it was never
// there.
func (t *HashTable) Remove(key, value uint64) error {
	t.latch.WLock()
	defer t.latch.WUnlock()

	header, err := t.fetchHeader()
	if err != nil {
		return err
	}
	defer t.bpm.UnpinPage(t.headerPageID, false)

	hashVal := hashKey(key) % uint64(t.capacity)
	bucketID := uint32(hashVal / slotsPerBlock)
	slotIdx := uint32(hashVal % slotsPerBlock)

	blockID := header.GetBlockPageId(bucketID)
	block, err := t.fetchBlock(blockID)
	if err != nil {
		return err
	}

	for block.IsOccupied(slotIdx) {
		if block.IsReadable(slotIdx) && block.KeyAt(slotIdx) == key && block.ValueAt(slotIdx) == value {
			block.Remove(slotIdx)
			t.bpm.UnpinPage(blockID, true)
			return nil
		}
		slotIdx++
		if slotIdx >= slotsPerBlock {
			t.bpm.UnpinPage(blockID, false)
			bucketID++
			if bucketID >= header.NumBlocks() {
				return nil
			}
			blockID = header.GetBlockPageId(bucketID)
			block, err = t.fetchBlock(blockID)
			if err != nil {
				return err
			}
			slotIdx = 0
		}
	}
	t.bpm.UnpinPage(blockID, false)
	return nil
}

// Resize grows the index to newCapacity slots, allocating new block pages
// and rehashing every live entry into its new address so probes for keys
// inserted before the resize still terminate correctly under the new
// modulus. This full rehash is the fix spec.md calls for: the original
// bustub Resize this table's algorithm is grounded on only appends block
// pages without moving existing entries, silently orphaning them.
func (t *HashTable) Resize(newCapacity uint32) error {
	t.latch.WLock()
	defer t.latch.WUnlock()
	return t.resizeLocked(newCapacity)
}

type liveEntry struct {
	key, value uint64
}

func (t *HashTable) resizeLocked(newCapacity uint32) error {
	header, err := t.fetchHeader()
	if err != nil {
		return err
	}
	oldNumBlocks := header.NumBlocks()

	var entries []liveEntry
	for b := uint32(0); b < oldNumBlocks; b++ {
		blockID := header.GetBlockPageId(b)
		block, err := t.fetchBlock(blockID)
		if err != nil {
			t.bpm.UnpinPage(t.headerPageID, false)
			return err
		}
		for s := uint32(0); s < slotsPerBlock; s++ {
			if block.IsReadable(s) {
				entries = append(entries, liveEntry{block.KeyAt(s), block.ValueAt(s)})
			}
		}
		t.bpm.UnpinPage(blockID, false)
	}

	neededBlocks := (newCapacity + slotsPerBlock - 1) / slotsPerBlock
	if neededBlocks == 0 {
		neededBlocks = 1
	}
	for header.NumBlocks() < neededBlocks {
		p, err := t.bpm.NewPage()
		if err != nil {
			t.bpm.UnpinPage(t.headerPageID, true)
			return err
		}
		if !header.AddBlockPageId(p.ID()) {
			// header page has no more room to address another block page
			// (MaxHeaderBlocks reached): growth stops here rather than
			// looping forever re-allocating pages the header can't record.
			t.bpm.UnpinPage(p.ID(), false)
			t.bpm.DeletePage(p.ID())
			t.bpm.UnpinPage(t.headerPageID, true)
			return serrors.ErrIndexFull
		}
		t.bpm.UnpinPage(p.ID(), true)
	}

	// Clear every pre-existing block page's bitmaps: every live entry is
	// about to be reinserted at its new address, and stale readable bits
	// left behind would make deleted-looking ghosts reachable again.
	for b := uint32(0); b < oldNumBlocks; b++ {
		blockID := header.GetBlockPageId(b)
		p, err := t.bpm.FetchPage(blockID)
		if err != nil {
			t.bpm.UnpinPage(t.headerPageID, true)
			return err
		}
		data := p.Data()
		for i := range data {
			data[i] = 0
		}
		t.bpm.UnpinPage(blockID, true)
	}

	header.SetCapacity(newCapacity)
	t.capacity = newCapacity
	t.bpm.UnpinPage(t.headerPageID, true)

	for _, e := range entries {
		if err := t.insertLocked(e.key, e.value); err != nil && err != serrors.ErrDuplicateEntry {
			return err
		}
	}
	return nil
}

// GetSize returns the index's current slot capacity.
func (t *HashTable) GetSize() uint32 {
	t.latch.RLock()
	defer t.latch.RUnlock()
	return t.capacity
}

package hash

import "github.com/tanukidb/pagestore/types"

// Iterator walks every live (key, value) pair in a HashTable in bucket
// order. Grounded on the teacher's container/hash/linear_probe_hash_table_iterator.go.
type Iterator struct {
	t       *HashTable
	bucket  uint32
	slot    uint32
	blockID types.PageID
	done    bool
}

// NewIterator returns an iterator positioned on the first live entry (or
// already invalid if the table holds none).
func NewIterator(t *HashTable) *Iterator {
	it := &Iterator{t: t}
	it.advanceToReadable(true)
	return it
}

// advanceToReadable moves forward (from the current position, or from the
// very start if first is true) until it lands on a readable slot or runs
// off the end of the table.
func (it *Iterator) advanceToReadable(first bool) {
	it.t.latch.RLock()
	defer it.t.latch.RUnlock()

	header, err := it.t.fetchHeader()
	if err != nil {
		it.done = true
		return
	}
	defer it.t.bpm.UnpinPage(it.t.headerPageID, false)

	bucket, slot := it.bucket, it.slot
	if first {
		bucket, slot = 0, 0
	} else {
		slot++
	}

	for bucket < header.NumBlocks() {
		blockID := header.GetBlockPageId(bucket)
		block, err := it.t.fetchBlock(blockID)
		if err != nil {
			it.done = true
			return
		}
		for slot < slotsPerBlock {
			if block.IsReadable(slot) {
				it.bucket, it.slot = bucket, slot
				it.blockID = blockID
				it.t.bpm.UnpinPage(blockID, false)
				return
			}
			slot++
		}
		it.t.bpm.UnpinPage(blockID, false)
		bucket++
		slot = 0
	}
	it.done = true
}

// Valid reports whether the iterator is positioned on a live entry.
func (it *Iterator) Valid() bool { return !it.done }

// Next returns the current (key, value) pair and advances.
func (it *Iterator) Next() (key, value uint64, ok bool) {
	if it.done {
		return 0, 0, false
	}
	block, err := it.t.fetchBlock(it.blockID)
	if err != nil {
		it.done = true
		return 0, 0, false
	}
	key, value = block.KeyAt(it.slot), block.ValueAt(it.slot)
	it.t.bpm.UnpinPage(it.blockID, false)
	it.advanceToReadable(false)
	return key, value, true
}

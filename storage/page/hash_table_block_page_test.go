package page

import (
	"testing"

	pair "github.com/notEpsilon/go-pair"
	"github.com/stretchr/testify/assert"

	"github.com/tanukidb/pagestore/types"
)

func TestBlockPageInsertReadableOccupied(t *testing.T) {
	b := NewBlockPage(NewEmpty(types.PageID(1)))

	assert.False(t, b.IsOccupied(0))
	assert.False(t, b.IsReadable(0))

	b.Insert(0, 42, 100)
	assert.True(t, b.IsOccupied(0))
	assert.True(t, b.IsReadable(0))
	assert.Equal(t, uint64(42), b.KeyAt(0))
	assert.Equal(t, uint64(100), b.ValueAt(0))

	assert.Equal(t, pair.New(uint64(42), uint64(100)), b.PairAt(0))
}

func TestBlockPageRemoveKeepsOccupiedBit(t *testing.T) {
	b := NewBlockPage(NewEmpty(types.PageID(1)))
	b.Insert(5, 7, 8)
	b.Remove(5)

	assert.True(t, b.IsOccupied(5), "occupied bit must survive Remove so probe chains stay intact")
	assert.False(t, b.IsReadable(5))
}

func TestBlockPageSlotsAreIndependent(t *testing.T) {
	b := NewBlockPage(NewEmpty(types.PageID(1)))
	for i := uint32(0); i < BlockArraySize; i++ {
		b.Insert(i, uint64(i), uint64(i*2))
	}
	for i := uint32(0); i < BlockArraySize; i++ {
		assert.Equal(t, uint64(i), b.KeyAt(i))
		assert.Equal(t, uint64(i*2), b.ValueAt(i))
		assert.True(t, b.IsReadable(i))
	}
}

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanukidb/pagestore/storage/disk"
	"github.com/tanukidb/pagestore/storage/errors"
	"github.com/tanukidb/pagestore/types"
)

// Grounded on the teacher's storage/buffer/buffer_pool_manager_test.go
// TestSample scenario, ported from testingpkg.Equals/Ok to testify.
func TestBufferPoolManagerFillAndEvict(t *testing.T) {
	poolSize := 10
	dm := disk.NewMemManager()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0, err := bpm.NewPage()
	require.NoError(t, err)
	assert.Equal(t, types.PageID(0), page0.ID())

	page0.Copy(0, []byte("Hello"))

	for i := 1; i < poolSize; i++ {
		p, err := bpm.NewPage()
		require.NoError(t, err)
		assert.Equal(t, types.PageID(i), p.ID())
	}

	// pool is full and every frame is pinned: no room for another page.
	_, err = bpm.NewPage()
	assert.ErrorIs(t, err, errors.ErrNoFreeFrame)

	for i := 0; i < 5; i++ {
		require.NoError(t, bpm.UnpinPage(types.PageID(i), true))
		require.NoError(t, bpm.FlushPage(types.PageID(i)))
	}
	for i := 0; i < 4; i++ {
		_, err := bpm.NewPage()
		require.NoError(t, err)
	}

	// page 0's content should have survived the eviction/reload cycle.
	fetched, err := bpm.FetchPage(types.PageID(0))
	require.NoError(t, err)
	assert.Equal(t, byte('H'), fetched.Data()[0])
	require.NoError(t, bpm.UnpinPage(types.PageID(0), true))
}

func TestBufferPoolManagerUnpinThenAllPinnedNewPageFails(t *testing.T) {
	poolSize := 3
	dm := disk.NewMemManager()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	var ids []types.PageID
	for i := 0; i < poolSize; i++ {
		p, err := bpm.NewPage()
		require.NoError(t, err)
		ids = append(ids, p.ID())
	}
	for _, id := range ids {
		require.NoError(t, bpm.UnpinPage(id, false))
	}

	// all frames are now evictable; a new page reuses one via the replacer.
	newPage, err := bpm.NewPage()
	require.NoError(t, err)
	assert.NotNil(t, newPage)

	for _, id := range ids[1:] {
		_, _ = bpm.FetchPage(id) // re-pin the rest to exhaust the pool
	}
	_, err = bpm.NewPage()
	assert.ErrorIs(t, err, errors.ErrNoFreeFrame)
}

func TestDeletePageRejectsPinned(t *testing.T) {
	dm := disk.NewMemManager()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(4, dm)

	p, err := bpm.NewPage()
	require.NoError(t, err)

	err = bpm.DeletePage(p.ID())
	assert.ErrorIs(t, err, errors.ErrPagePinned)

	require.NoError(t, bpm.UnpinPage(p.ID(), false))
	require.NoError(t, bpm.DeletePage(p.ID()))
}

package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanukidb/pagestore/storage/errors"
	"github.com/tanukidb/pagestore/storage/tuple"
	"github.com/tanukidb/pagestore/types"
)

func newTestTablePage() *TablePage {
	tp := NewTablePage(NewEmpty(types.PageID(1)))
	tp.Init(types.PageID(1), types.InvalidPageID)
	return tp
}

func TestTablePageInsertAndGet(t *testing.T) {
	tp := newTestTablePage()

	rid, err := tp.InsertTuple(tuple.New([]byte("first row")))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), rid.GetSlotNum())

	got, err := tp.GetTuple(rid)
	require.NoError(t, err)
	assert.Equal(t, "first row", string(got.Data()))

	rid2, err := tp.InsertTuple(tuple.New([]byte("second row")))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rid2.GetSlotNum())
	assert.Equal(t, uint32(2), tp.GetTupleCount())
}

func TestTablePageDeleteLifecycle(t *testing.T) {
	tp := newTestTablePage()
	rid, err := tp.InsertTuple(tuple.New([]byte("to be deleted")))
	require.NoError(t, err)

	require.NoError(t, tp.MarkDelete(rid))
	_, err = tp.GetTuple(rid)
	assert.ErrorIs(t, err, errors.ErrTupleDeleted)

	require.NoError(t, tp.RollbackDelete(rid))
	got, err := tp.GetTuple(rid)
	require.NoError(t, err)
	assert.Equal(t, "to be deleted", string(got.Data()))

	require.NoError(t, tp.MarkDelete(rid))
	require.NoError(t, tp.ApplyDelete(rid))
	_, err = tp.GetTuple(rid)
	assert.ErrorIs(t, err, errors.ErrTupleDeleted)
}

func TestTablePageUpdateInPlace(t *testing.T) {
	tp := newTestTablePage()
	rid, err := tp.InsertTuple(tuple.New([]byte("0123456789")))
	require.NoError(t, err)

	old, err := tp.UpdateTuple(rid, tuple.New([]byte("shrunk")))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(old.Data()))

	got, err := tp.GetTuple(rid)
	require.NoError(t, err)
	assert.Equal(t, "shrunk", string(got.Data()))
}

func TestTablePageInsertTooLargeFails(t *testing.T) {
	tp := newTestTablePage()
	huge := make([]byte, PageSize)
	_, err := tp.InsertTuple(tuple.New(huge))
	assert.ErrorIs(t, err, errors.ErrTupleTooLarge)
}

package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanukidb/pagestore/storage/rid"
	"github.com/tanukidb/pagestore/types"
)

func TestTupleSerializeDeserializeRoundTrip(t *testing.T) {
	orig := New([]byte("hello tuple"))
	orig.SetRID(rid.New(types.PageID(7), 3))

	buf := make([]byte, orig.Size())
	orig.SerializeTo(buf)

	got, n := DeserializeFrom(buf)
	require.Equal(t, orig.Size(), n)
	assert.Equal(t, orig.Data(), got.Data())
}

func TestTupleNewCopiesInput(t *testing.T) {
	data := []byte("mutate me")
	tp := New(data)
	data[0] = 'X'
	assert.Equal(t, byte('m'), tp.Data()[0], "New must copy, not alias, its input")
}

func TestTupleSize(t *testing.T) {
	tp := New([]byte("abc"))
	assert.Equal(t, uint32(4+3), tp.Size())
}

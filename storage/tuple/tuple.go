// Package tuple defines the opaque, length-prefixed byte blob that flows
// through the table heap and the write-ahead log. The schema/column value
// system the teacher's tuple package supports is out of scope here; this
// module only ever needs to move a tuple's raw bytes and remember its RID.
package tuple

import (
	"encoding/binary"

	"github.com/tanukidb/pagestore/storage/rid"
)

// Tuple is raw row data plus the RID it was last read from, if any.
type Tuple struct {
	rid  rid.RID
	data []byte
}

// New wraps data as a tuple with no RID assigned yet.
func New(data []byte) Tuple {
	cp := make([]byte, len(data))
	copy(cp, data)
	return Tuple{data: cp}
}

// Size returns the tuple's on-the-wire size: its data plus the 4-byte
// length prefix log records store alongside it.
func (t Tuple) Size() uint32 { return uint32(4 + len(t.data)) }

func (t Tuple) Data() []byte      { return t.data }
func (t Tuple) RID() rid.RID      { return t.rid }
func (t *Tuple) SetRID(r rid.RID) { t.rid = r }

// SerializeTo writes the tuple's length-prefixed wire form into dst,
// which must be at least int(t.Size()) bytes.
func (t Tuple) SerializeTo(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(len(t.data)))
	copy(dst[4:], t.data)
}

// DeserializeFrom reads a length-prefixed tuple starting at src[0] and
// returns it along with the number of bytes consumed.
func DeserializeFrom(src []byte) (Tuple, uint32) {
	n := binary.LittleEndian.Uint32(src[0:4])
	data := make([]byte, n)
	copy(data, src[4:4+n])
	return Tuple{data: data}, 4 + n
}

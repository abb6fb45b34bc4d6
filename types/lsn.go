package types

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"
)

// LSN is a log sequence number: a strictly increasing identifier assigned
// to every log record as it is appended to the write-ahead log.
type LSN int32

// InvalidLSN marks "no LSN assigned" (a page never touched by WAL-logged
// writes, or a not-yet-appended record).
const InvalidLSN LSN = -1

// SizeOfLSN is the encoded width of an LSN, in bytes.
const SizeOfLSN = 4

// Serialize encodes the LSN as little-endian bytes.
func (lsn LSN) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(lsn))
	return buf.Bytes()
}

// NewLSNFromBytes decodes an LSN previously produced by Serialize.
func NewLSNFromBytes(b []byte) LSN {
	var v int32
	binary.Read(bytes.NewReader(b), binary.LittleEndian, &v)
	return LSN(v)
}

// AtomicAddLSN atomically increments *addr by delta and returns the new
// value.
func AtomicAddLSN(addr *LSN, delta LSN) LSN {
	return LSN(atomic.AddInt32((*int32)(addr), int32(delta)))
}

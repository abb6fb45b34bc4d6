package types

import (
	"bytes"
	"encoding/binary"
)

// PageID identifies a page within a DiskStore's address space.
type PageID int32

// InvalidPageID marks "no page" (unset fields, end-of-chain sentinels).
const InvalidPageID PageID = -1

// IsValid reports whether id refers to a real page.
func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

// Serialize encodes the page id as little-endian bytes.
func (id PageID) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(id))
	return buf.Bytes()
}

// NewPageIDFromBytes decodes a page id previously produced by Serialize.
func NewPageIDFromBytes(b []byte) PageID {
	var v int32
	binary.Read(bytes.NewReader(b), binary.LittleEndian, &v)
	return PageID(v)
}

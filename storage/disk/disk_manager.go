// Package disk implements the DiskStore collaborator: durable page storage
// and a separate append-only log stream, behind an interface so the buffer
// pool and log manager never care whether pages live in a real file or an
// in-memory backing store.
package disk

import "github.com/tanukidb/pagestore/types"

// Manager is the DiskStore contract §6 describes: fixed-size page
// read/write, page id allocation/deallocation, and a raw append-only log
// stream the LogManager writes to and LogRecovery reads back.
type Manager interface {
	ReadPage(id types.PageID, dst []byte) error
	WritePage(id types.PageID, src []byte) error
	AllocatePage() types.PageID
	DeallocatePage(id types.PageID)

	WriteLog(data []byte) error
	ReadLog(dst []byte, offset int) (int, error)
	LogSize() int64

	Size() int64
	GetNumWrites() uint64
	ShutDown()
}

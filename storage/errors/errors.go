// Package errors defines the sentinel errors this module's storage layer
// returns, following the teacher's typed-string-error convention rather
// than ad-hoc fmt.Errorf calls at every call site.
package errors

// Error is a simple string-backed error type, so sentinels can be compared
// with == the way the teacher's github.com/ryogrid/SamehadaDB/errors does.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrNoFreeFrame is returned by BufferPoolManager.FetchPage/NewPage when
	// every frame is pinned and the replacer has no victim to evict.
	ErrNoFreeFrame = Error("buffer pool: no free frame or victim available")
	// ErrPageNotFound is returned when a page id has no resident frame.
	ErrPageNotFound = Error("buffer pool: page not found in pool")
	// ErrPagePinned is returned by DeletePage when the page is still pinned.
	ErrPagePinned = Error("buffer pool: page is pinned and cannot be deleted")
	// ErrDeallocatedPage names an operation on a deallocated page id.
	// Neither disk manager returns it: a deallocated id is read and written
	// like any other.
	ErrDeallocatedPage = Error("disk manager: page id was deallocated")
	// ErrKeyNotFound names a hash index lookup that finds no mapping.
	// HashTable does not return it: GetValue reports a missing key with an
	// empty result and Remove treats an absent pair as a no-op.
	ErrKeyNotFound = Error("hash index: key not found")
	// ErrDuplicateEntry is returned by HashIndex.Insert for an existing
	// (key, value) pair.
	ErrDuplicateEntry = Error("hash index: duplicate (key, value) entry")
	// ErrIndexFull is returned when the hash index cannot grow because its
	// header page can address no more block pages.
	ErrIndexFull = Error("hash index: no free slot available")
	// ErrTupleTooLarge is returned by TablePage.InsertTuple when the tuple
	// does not fit in the page's free space, and by TablePage.UpdateTuple
	// when the new tuple is larger than the old one.
	ErrTupleTooLarge = Error("table page: tuple too large for page")
	// ErrInvalidSlot is returned by TablePage operations addressing a slot
	// outside the page's tuple count.
	ErrInvalidSlot = Error("table page: invalid slot number")
	// ErrTupleDeleted is returned by operations on a tuple already deleted.
	ErrTupleDeleted = Error("table page: tuple already deleted")
	// ErrCorruptLogRecord is returned by recovery when a log record fails
	// to deserialize cleanly (short read, bad header).
	ErrCorruptLogRecord = Error("recovery: corrupt or truncated log record")
)

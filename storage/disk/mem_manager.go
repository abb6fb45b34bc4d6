package disk

import (
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dsnet/golib/memfile"
	"github.com/sasha-s/go-deadlock"

	"github.com/tanukidb/pagestore/common"
	"github.com/tanukidb/pagestore/storage/page"
	"github.com/tanukidb/pagestore/types"
)

// MemManager is an in-memory Manager backed by memfile.File, used by tests
// and short-lived tooling that never needs the pages to outlive the
// process. Grounded on the teacher's storage/disk/virtual_disk_manager_impl.go,
// which backs its virtual disk the same way.
type MemManager struct {
	mu deadlock.Mutex

	db  *memfile.File
	log *memfile.File

	nextPageID     int32
	deallocatedIDs mapset.Set[types.PageID]
	numWrites      uint64
	logOffset      int64
}

// NewMemManager returns a fresh, empty in-memory disk store.
func NewMemManager() *MemManager {
	return &MemManager{
		db:             memfile.New(nil),
		log:            memfile.New(nil),
		deallocatedIDs: mapset.NewSet[types.PageID](),
	}
}

// ReadPage reads page id into dst. A page never written (offset past the
// end of the backing memfile) reads back as page.FreshPageBytes, so its
// page_lsn is InvalidLSN rather than colliding with a real LSN of 0.
func (m *MemManager) ReadPage(id types.PageID, dst []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * common.PageSize
	n, err := m.db.ReadAt(dst, offset)
	if n == 0 {
		fresh := page.FreshPageBytes()
		copy(dst, fresh[:])
		return nil
	}
	if n < len(dst) {
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
	}
	_ = err
	return nil
}

func (m *MemManager) WritePage(id types.PageID, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * common.PageSize
	if _, err := m.db.WriteAt(src, offset); err != nil {
		return err
	}
	atomic.AddUint64(&m.numWrites, 1)
	return nil
}

func (m *MemManager) AllocatePage() types.PageID {
	return types.PageID(atomic.AddInt32(&m.nextPageID, 1) - 1)
}

// DeallocatePage records id as free for bookkeeping/introspection; unlike
// FileManager's no-op, the in-memory manager tracks the set so tests can
// check which ids were deallocated. Ids are not reused.
func (m *MemManager) DeallocatePage(id types.PageID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deallocatedIDs.Add(id)
}

// IsDeallocated reports whether id was ever passed to DeallocatePage.
func (m *MemManager) IsDeallocated(id types.PageID) bool {
	return m.deallocatedIDs.Contains(id)
}

func (m *MemManager) WriteLog(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.log.WriteAt(data, m.logOffset)
	m.logOffset += int64(n)
	return err
}

func (m *MemManager) ReadLog(dst []byte, offset int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.log.ReadAt(dst, int64(offset))
	if n > 0 {
		return n, nil
	}
	return n, err
}

// LogSize returns the number of bytes written to the in-memory WAL so far.
func (m *MemManager) LogSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logOffset
}

func (m *MemManager) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.db.Bytes()))
}

func (m *MemManager) GetNumWrites() uint64 { return atomic.LoadUint64(&m.numWrites) }

func (m *MemManager) ShutDown() {}

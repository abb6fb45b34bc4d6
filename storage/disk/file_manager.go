package disk

import (
	"os"
	"sync/atomic"

	"github.com/ncw/directio"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/tanukidb/pagestore/common"
	"github.com/tanukidb/pagestore/storage/page"
	"github.com/tanukidb/pagestore/types"
)

// FileManager is the durable, file-backed Manager. Pages live in one file,
// the WAL in a second, sibling file, matching the teacher's
// lib/storage/disk/disk_manager_impl.go split of db file vs log file.
type FileManager struct {
	dbFile  *os.File
	logFile *os.File

	dbMu  deadlock.Mutex
	logMu deadlock.Mutex

	nextPageID int32
	numWrites  uint64
	numFlushes uint64
}

// NewFileManager opens (creating if needed) dbPath and dbPath+".log" as the
// page store and WAL respectively.
func NewFileManager(dbPath string) (*FileManager, error) {
	dbFile, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(dbPath+".log", os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		dbFile.Close()
		return nil, err
	}
	return &FileManager{dbFile: dbFile, logFile: logFile}, nil
}

// ReadPage reads page id into dst, which must be exactly common.PageSize
// bytes. A read past end-of-file (a page that was allocated but never
// written) fills dst as page.FreshPageBytes instead of erroring, so its
// page_lsn reads back as InvalidLSN rather than colliding with a real LSN
// of 0.
func (m *FileManager) ReadPage(id types.PageID, dst []byte) error {
	m.dbMu.Lock()
	defer m.dbMu.Unlock()

	block := directio.AlignedBlock(common.PageSize)
	offset := int64(id) * common.PageSize
	n, err := m.dbFile.ReadAt(block, offset)
	if err != nil && n == 0 {
		fresh := page.FreshPageBytes()
		copy(dst, fresh[:])
		return nil
	}
	copy(dst, block)
	return nil
}

// WritePage durably writes src (exactly common.PageSize bytes) at page id.
func (m *FileManager) WritePage(id types.PageID, src []byte) error {
	m.dbMu.Lock()
	defer m.dbMu.Unlock()

	block := directio.AlignedBlock(common.PageSize)
	copy(block, src)
	offset := int64(id) * common.PageSize
	if _, err := m.dbFile.WriteAt(block, offset); err != nil {
		common.Log.Error("write page failed", zap.Error(err))
		return err
	}
	atomic.AddUint64(&m.numWrites, 1)
	return nil
}

// AllocatePage hands out the next never-used page id.
func (m *FileManager) AllocatePage() types.PageID {
	return types.PageID(atomic.AddInt32(&m.nextPageID, 1) - 1)
}

// DeallocatePage is a no-op: freed page ids are not tracked or reused, and
// AllocatePage always hands out a new id, matching the teacher's
// lib/storage/disk/disk_manager_impl.go DeallocatePage.
func (m *FileManager) DeallocatePage(id types.PageID) {}

// WriteLog appends data to the WAL file.
func (m *FileManager) WriteLog(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	m.logMu.Lock()
	defer m.logMu.Unlock()
	_, err := m.logFile.Write(data)
	if err == nil {
		atomic.AddUint64(&m.numFlushes, 1)
	}
	return err
}

// ReadLog reads len(dst) bytes from the WAL file starting at offset,
// returning the actual number of bytes read (which may be less at EOF).
func (m *FileManager) ReadLog(dst []byte, offset int) (int, error) {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	n, err := m.logFile.ReadAt(dst, int64(offset))
	if n > 0 {
		return n, nil
	}
	return n, err
}

// LogSize returns the current size of the WAL file.
func (m *FileManager) LogSize() int64 {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	info, err := m.logFile.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (m *FileManager) Size() int64 {
	info, err := m.dbFile.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (m *FileManager) GetNumWrites() uint64 { return atomic.LoadUint64(&m.numWrites) }

func (m *FileManager) ShutDown() {
	m.dbFile.Close()
	m.logFile.Close()
}

package page

import "github.com/tanukidb/pagestore/types"

// HeaderPage is the hash index's single header page: the array of block
// page ids that make up the index, plus the current slot capacity.
//
// Layout:
//
//	0  PageId    (4)
//	4  LSN       (4)  (shared with Page.GetLSN/SetLSN)
//	8  Capacity  (4)  total addressable hash slots (size_ in bustub terms)
//	12 BlockCount(4)  number of block page ids populated below
//	16.. BlockPageIDs[MaxHeaderBlocks] (4 bytes each)
const (
	offsetHeaderCapacity   = 8
	offsetHeaderBlockCount = 12
	offsetHeaderBlocksBase = 16
	// MaxHeaderBlocks bounds how many block pages a single header page can
	// address: (PageSize - offsetHeaderBlocksBase) / 4.
	MaxHeaderBlocks = (PageSize - offsetHeaderBlocksBase) / 4
)

// HeaderPage wraps a frame with hash-index header semantics.
type HeaderPage struct {
	*Page
}

func NewHeaderPage(p *Page) *HeaderPage { return &HeaderPage{Page: p} }

// Init formats a freshly allocated frame as an empty header page.
func (h *HeaderPage) Init(pageID types.PageID) {
	h.setLE32(offsetPageID, uint32(pageID))
	h.setLE32(offsetHeaderCapacity, 0)
	h.setLE32(offsetHeaderBlockCount, 0)
}

func (h *HeaderPage) GetPageId() types.PageID   { return types.PageID(h.le32(offsetPageID)) }
func (h *HeaderPage) SetPageId(id types.PageID) { h.setLE32(offsetPageID, uint32(id)) }

func (h *HeaderPage) GetCapacity() uint32    { return h.le32(offsetHeaderCapacity) }
func (h *HeaderPage) SetCapacity(cap uint32) { h.setLE32(offsetHeaderCapacity, cap) }

func (h *HeaderPage) NumBlocks() uint32 { return h.le32(offsetHeaderBlockCount) }

// AddBlockPageId appends a new block page id, returning false if the
// header page has no more room to address one.
func (h *HeaderPage) AddBlockPageId(id types.PageID) bool {
	n := h.NumBlocks()
	if int(n) >= MaxHeaderBlocks {
		return false
	}
	h.setLE32(offsetHeaderBlocksBase+int(n)*4, uint32(id))
	h.setLE32(offsetHeaderBlockCount, n+1)
	return true
}

// GetBlockPageId returns the block page id stored at index i.
func (h *HeaderPage) GetBlockPageId(i uint32) types.PageID {
	return types.PageID(h.le32(offsetHeaderBlocksBase + int(i)*4))
}

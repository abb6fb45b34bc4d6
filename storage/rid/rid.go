// Package rid defines the record identifier shared by the table page and
// tuple packages. It lives on its own so tuple (which needs to remember
// the RID it was read from) and page (which produces RIDs from slot
// inserts) don't import each other.
package rid

import "github.com/tanukidb/pagestore/types"

// RID locates a tuple: the page it lives on and its slot within that
// page's tuple-offset/size array.
type RID struct {
	pageID  types.PageID
	slotNum uint32
}

func New(pageID types.PageID, slotNum uint32) RID {
	return RID{pageID: pageID, slotNum: slotNum}
}

func (r RID) GetPageId() types.PageID { return r.pageID }
func (r RID) GetSlotNum() uint32      { return r.slotNum }

func (r *RID) Set(pageID types.PageID, slotNum uint32) {
	r.pageID = pageID
	r.slotNum = slotNum
}

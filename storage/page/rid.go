package page

import (
	"github.com/tanukidb/pagestore/storage/rid"
	"github.com/tanukidb/pagestore/types"
)

// RID re-exports storage/rid.RID so existing callers within this package
// (and package-qualified callers as page.RID) keep working; the type
// itself lives in storage/rid to avoid a page<->tuple import cycle.
type RID = rid.RID

func NewRID(pageID types.PageID, slotNum uint32) RID {
	return rid.New(pageID, slotNum)
}

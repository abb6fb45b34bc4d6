package buffer

import "github.com/tanukidb/pagestore/common"

// Replacer selects a victim frame among unpinned frames when the buffer
// pool needs to evict one to satisfy a fetch or a new-page allocation.
type Replacer interface {
	// Victim removes and returns an unpinned frame to evict, or ok=false
	// if every tracked frame is pinned/unavailable.
	Victim() (id FrameID, ok bool)
	// Unpin marks a frame as evictable (its pin count just dropped to 0).
	Unpin(id FrameID)
	// Pin marks a frame as no longer evictable (something pinned it).
	Pin(id FrameID)
	// Size returns the number of frames currently evictable.
	Size() int
}

// ClockReplacer implements the clock (second-chance) policy: a circular
// list of unpinned frames each carrying a reference bit. Victim() walks the
// ring clearing reference bits until it finds one already clear, then
// evicts that frame — giving recently-touched frames one extra pass before
// eviction. Grounded on the teacher's storage/buffer/clock_replacer.go.
type ClockReplacer struct {
	list      *circularList
	clockHand *node
	latch     common.Latch
}

// NewClockReplacer returns a replacer with room for numFrames.
func NewClockReplacer(numFrames int) *ClockReplacer {
	return &ClockReplacer{list: newCircularList(numFrames)}
}

func (r *ClockReplacer) Victim() (FrameID, bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	if r.list.isEmpty() {
		return 0, false
	}
	if r.clockHand == nil {
		r.clockHand = r.list.head
	}
	for {
		if !r.clockHand.referenced {
			victim := r.clockHand.value
			next := r.clockHand.next
			r.list.remove(victim)
			if r.list.isEmpty() {
				r.clockHand = nil
			} else {
				r.clockHand = next
			}
			return victim, true
		}
		r.clockHand.referenced = false
		r.clockHand = r.clockHand.next
	}
}

func (r *ClockReplacer) Unpin(id FrameID) {
	r.latch.Lock()
	defer r.latch.Unlock()
	if !r.list.hasKey(id) {
		r.list.insert(id)
	}
}

func (r *ClockReplacer) Pin(id FrameID) {
	r.latch.Lock()
	defer r.latch.Unlock()
	if r.list.hasKey(id) && r.clockHand != nil && r.clockHand.value == id {
		r.clockHand = r.clockHand.next
		if r.clockHand.value == id {
			r.clockHand = nil
		}
	}
	r.list.remove(id)
}

func (r *ClockReplacer) Size() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.list.size
}

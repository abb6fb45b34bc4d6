package common

import (
	"github.com/sasha-s/go-deadlock"
)

// RWLatch is a reader/writer latch used to guard page contents and hash
// table state. It is backed by go-deadlock's
// RWMutex instead of sync.RWMutex so that lock-order inversions across the
// buffer pool / hash index / log manager surface as a panic with a full
// cycle trace instead of a silent deadlock.
type RWLatch struct {
	mu deadlock.RWMutex
}

func (l *RWLatch) WLock()   { l.mu.Lock() }
func (l *RWLatch) WUnlock() { l.mu.Unlock() }
func (l *RWLatch) RLock()   { l.mu.RLock() }
func (l *RWLatch) RUnlock() { l.mu.RUnlock() }

// Latch is a plain mutual-exclusion latch, used where no reader/writer
// distinction applies (e.g. the buffer pool's single pool-wide latch).
type Latch struct {
	mu deadlock.Mutex
}

func (l *Latch) Lock()   { l.mu.Lock() }
func (l *Latch) Unlock() { l.mu.Unlock() }

package rt

import (
	"sync"

	"github.com/wasmactors/actorhost/rt/errs"
)

// delivery is one pending argument tuple addressed to a single handler
// name (spec §3 "Mailbox").
type delivery struct {
	handler string
	args    []uint64
}

// mailbox is the per-actor map from handler name to its ordered queue of
// pending deliveries (spec §3, §4.4). Order within a handler name is FIFO;
// order across handler names is unspecified (spec §5).
type mailbox map[string][]delivery

// mailboxes is the USPS: one mailbox per address-table slot, plus the
// global pending counter (spec §3, §4.4). Its own RWMutex is the
// "mailboxes" lock in the free_slots -> children -> mailboxes ordering
// (spec §5).
type mailboxes struct {
	mu      sync.RWMutex
	boxes   []mailbox
	pending int64 // guarded by mu.
}

func newMailboxes() *mailboxes {
	return &mailboxes{boxes: []mailbox{make(mailbox)}} // slot 0 exists but is never delivered to.
}

// ensureLength grows boxes until it has at least n entries, keeping
// len(boxes) in lockstep with the address table (spec §4.1 invariant). It
// is a no-op if boxes is already at least that long, so concurrent callers
// racing to grow past the same address are safe.
func (m *mailboxes) ensureLength(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.boxes) < n {
		m.boxes = append(m.boxes, make(mailbox))
	}
}

func (m *mailboxes) length() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.boxes)
}

// sendTo appends args to the queue keyed by handler in mailbox to,
// incrementing the pending count (spec §4.4). Fails with InvalidAddress if
// to is out of range.
func (m *mailboxes) sendTo(to Address, handler string, args []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(to) >= len(m.boxes) {
		return errs.InvalidAddress(uint32(to))
	}
	m.boxes[to][handler] = append(m.boxes[to][handler], delivery{handler: handler, args: args})
	m.pending++
	return nil
}

// pendingCount returns the current global pending count (spec §8 testable
// property 2).
func (m *mailboxes) pendingCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending
}

// drain atomically swaps every mailbox for a fresh empty one, zeroes the
// pending count, and returns the previous contents keyed by address (spec
// §4.4).
func (m *mailboxes) drain() []mailbox {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.boxes
	fresh := make([]mailbox, len(m.boxes))
	for i := range fresh {
		fresh[i] = make(mailbox)
	}
	m.boxes = fresh
	m.pending = 0
	return snapshot
}

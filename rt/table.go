package rt

import (
	"sync"

	"github.com/wasmactors/actorhost/rt/errs"
)

// maxAddress bounds the address table at the 32-bit address space; past it
// allocate fails with NoFreeAddrs (spec §7, §8 "spawning into a table at
// capacity"). Tests lower addressTable.maxAddr to reach that case without
// allocating billions of slots.
const maxAddress = 1 << 32

// addressTable owns the "children" (spec §5 lock order: free_slots ->
// children -> mailboxes) — the dense, append-only sequence of optional
// actor records, plus the free list used to recycle addresses.
//
// freeMu and tableMu are deliberately two different locks, mirroring the
// two-stage lock order the spec calls out; a write-holder of one must never
// block trying to acquire the other in the wrong order.
type addressTable struct {
	freeMu sync.Mutex
	free   []Address // most recently freed address is at the end (preferred for reuse).

	tableMu sync.RWMutex
	slots   []*Actor // children; slots[0] is always nil (the host sentinel).

	maxAddr int // overridable by tests to exercise NoFreeAddrs cheaply.
}

func newAddressTable() *addressTable {
	return &addressTable{
		slots:   []*Actor{nil},
		maxAddr: maxAddress,
	}
}

// allocate returns the most recently freed address if the free list is
// non-empty; otherwise it appends a fresh nil entry and returns its index.
// Fails with NoFreeAddrs only when the table cannot grow (spec §4.1).
func (t *addressTable) allocate() (Address, error) {
	t.freeMu.Lock()
	if n := len(t.free); n > 0 {
		addr := t.free[n-1]
		t.free = t.free[:n-1]
		t.freeMu.Unlock()
		return addr, nil
	}
	t.freeMu.Unlock()

	t.tableMu.Lock()
	defer t.tableMu.Unlock()
	if len(t.slots) >= t.maxAddr {
		return 0, errs.NoFreeAddrs()
	}
	t.slots = append(t.slots, nil)
	return Address(len(t.slots) - 1), nil
}

// install places actor into slot. The slot must already have been
// allocated and currently be nil; idempotent replacement is not permitted
// (spec §4.1).
func (t *addressTable) install(slot Address, actor *Actor) error {
	t.tableMu.Lock()
	defer t.tableMu.Unlock()
	if int(slot) >= len(t.slots) {
		return errs.InvalidAddress(uint32(slot))
	}
	if t.slots[slot] != nil {
		return errs.InvalidAddress(uint32(slot))
	}
	t.slots[slot] = actor
	return nil
}

// get returns the actor installed at addr, if any.
func (t *addressTable) get(addr Address) (*Actor, bool) {
	t.tableMu.RLock()
	defer t.tableMu.RUnlock()
	if addr.IsHost() || int(addr) >= len(t.slots) {
		return nil, false
	}
	actor := t.slots[addr]
	return actor, actor != nil
}

// length returns the current table length (spec §8 testable property 1:
// mailbox_count == address_table_length).
func (t *addressTable) length() int {
	t.tableMu.RLock()
	defer t.tableMu.RUnlock()
	return len(t.slots)
}

// freeAddr marks addr as vacant and returns it to the free list for reuse. Not
// currently called by the runtime itself — see the Destroy open question
// (spec §9) — but exercised directly by tests (spec §8 scenario 3: slot
// recycling) and available to embeddings that want actor-destruction
// policy.
func (t *addressTable) freeAddr(addr Address) error {
	t.tableMu.Lock()
	if addr.IsHost() || int(addr) >= len(t.slots) {
		t.tableMu.Unlock()
		return errs.InvalidAddress(uint32(addr))
	}
	t.slots[addr] = nil
	t.tableMu.Unlock()

	t.freeMu.Lock()
	t.free = append(t.free, addr)
	t.freeMu.Unlock()
	return nil
}

// allActive returns every currently-installed address, used by impulse_all
// (spec §4.5).
func (t *addressTable) allActive() []Address {
	t.tableMu.RLock()
	defer t.tableMu.RUnlock()
	out := make([]Address, 0, len(t.slots))
	for i, a := range t.slots {
		if i == 0 || a == nil {
			continue
		}
		out = append(out, Address(i))
	}
	return out
}

// freeListValid reports whether every entry in the free list points to a
// currently-nil slot (spec §8 testable property 3). Exposed for tests and
// Rt.Snapshot.
func (t *addressTable) freeListValid() bool {
	t.freeMu.Lock()
	free := append([]Address(nil), t.free...)
	t.freeMu.Unlock()

	t.tableMu.RLock()
	defer t.tableMu.RUnlock()
	for _, addr := range free {
		if int(addr) >= len(t.slots) || t.slots[addr] != nil {
			return false
		}
	}
	return true
}

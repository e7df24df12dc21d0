package rt

// Snapshot reports the testable-properties invariants from spec §8: table
// length, global pending count, and free-list size/validity. It is
// deliberately the same shape as the teacher's numActivatedActors()
// diagnostic, generalized into something tests and the inspect CLI
// subcommand can both use.
type Snapshot struct {
	AddressTableLength int
	MailboxCount       int
	PendingCount       int64
	FreeListSize       int
	FreeListValid      bool
}

// Snapshot captures the current invariant-relevant state of the runtime.
func (r *Rt) Snapshot() Snapshot {
	r.table.freeMu.Lock()
	freeSize := len(r.table.free)
	r.table.freeMu.Unlock()

	return Snapshot{
		AddressTableLength: r.table.length(),
		MailboxCount:       r.mbx.length(),
		PendingCount:       r.mbx.pendingCount(),
		FreeListSize:       freeSize,
		FreeListValid:      r.table.freeListValid(),
	}
}

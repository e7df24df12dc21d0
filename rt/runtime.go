// Package rt implements the capability-oriented actor runtime: address
// allocation, mailboxes, the host-call surface, the marshaller, the impulse
// bridge, and the poll loop described in spec.md.
package rt

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmactors/actorhost/rt/errs"
	"github.com/wasmactors/actorhost/rt/wasmhost"
)

// ModuleSource resolves the raw WASM bytes for a named bootstrap actor
// (spec §4.6's fixed bootstrap sequence). The build pipeline that produces
// those bytes is out of scope (spec §1); this is just the seam an
// embedding uses to hand them to Start.
type ModuleSource interface {
	ModuleBytes(name string) ([]byte, error)
}

// Rt is the scheduler/runtime described in spec.md §4: it owns the address
// table, the mailboxes, and the wazero engine, and mediates every
// cross-actor interaction. A handle to Rt is shared with every guest's
// host-call closures via the wasmhost.Engine, using the lock ordering
// fixed in spec §5: free_slots -> children -> mailboxes; the per-actor
// store lock is never held while any of those three locks are held.
type Rt struct {
	table *addressTable
	mbx   *mailboxes
	log   *zap.Logger

	engine     *wasmhost.Engine
	privileged PrivilegedHost
	prints     *printSink
}

// New constructs an Rt. log may be nil, in which case a no-op logger is
// used (matching the teacher's use of the stdlib default logger when none
// is configured).
func New(ctx context.Context, log *zap.Logger) (*Rt, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rt := &Rt{
		table:      newAddressTable(),
		mbx:        newMailboxes(),
		log:        log,
		privileged: noopPrivilegedHost{},
		prints:     newPrintSink(),
	}
	engine, err := wasmhost.NewEngine(ctx, hostAdapter{rt: rt})
	if err != nil {
		return nil, fmt.Errorf("error constructing wasm engine: %w", err)
	}
	rt.engine = engine
	return rt, nil
}

// Close tears down the underlying wazero runtime.
func (r *Rt) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Spawn materializes a new actor from bytes, following spec §4.2 exactly:
// allocate a slot, compile, instantiate with the appropriate import
// surface, cache the ABI, run init synchronously (pre-install), install,
// then enqueue init_async (post-install, delivered by the next Poll).
func (r *Rt) Spawn(ctx context.Context, spawner Address, bytes []byte, privileged bool) (Address, error) {
	addr, err := r.table.allocate()
	if err != nil {
		return 0, err
	}
	// Keep the mailbox vector length in lockstep with the address table
	// (spec §4.1 invariant). Only matters on the growth path: the recycled
	// path reuses the mailbox already present for that slot, including any
	// deliveries queued for its previous actor that no Poll has drained yet.
	r.mbx.ensureLength(int(addr) + 1)

	compiled, err := r.engine.Compile(ctx, bytes)
	if err != nil {
		return 0, errs.NewModuleError(errs.Compile, err)
	}

	name := instanceName(addr)
	instance, err := r.engine.Instantiate(ctx, compiled, name)
	if err != nil {
		return 0, errs.NewModuleError(errs.Instantiation, err)
	}

	actor := &Actor{
		addr:       addr,
		privileged: privileged,
		bytes:      append([]byte(nil), bytes...),
		compiled:   compiled,
		instance:   instance,
		abi:        cacheSignatures(compiled),
	}

	// Host calls made from this instance must resolve back to addr; wire
	// the caller registry before init can possibly run.
	r.engine.RegisterInstance(name, uint32(addr))

	if _, ok := actor.abi["init"]; ok {
		if _, err := actor.call(ctx, "init", []uint64{uint64(spawner)}); err != nil {
			r.engine.UnregisterInstance(name)
			return 0, fmt.Errorf("spawn: init failed for new actor at %d: %w", addr, err)
		}
	}

	if err := r.table.install(addr, actor); err != nil {
		r.engine.UnregisterInstance(name)
		return 0, err
	}

	if _, ok := actor.abi["init_async"]; ok {
		if err := r.mbx.sendTo(addr, "init_async", []uint64{uint64(spawner)}); err != nil {
			r.log.Warn("failed to enqueue init_async", zap.Uint32("addr", uint32(addr)), zap.Error(err))
		}
	}

	r.log.Debug("spawned actor",
		zap.Uint32("addr", uint32(addr)),
		zap.Uint32("spawner", uint32(spawner)),
		zap.Bool("privileged", privileged),
	)
	return addr, nil
}

// SpawnActor clones the actor at addr by re-spawning from its retained
// bytes, unprivileged, with caller as spawner (spec §4.2).
func (r *Rt) SpawnActor(ctx context.Context, caller Address, addr Address) (Address, error) {
	actor, ok := r.table.get(addr)
	if !ok {
		return 0, errs.InvalidAddress(uint32(addr))
	}
	return r.Spawn(ctx, caller, actor.bytes, false)
}

// SpawnActorFrom reads bytes from a memory-cell actor at cellAddr by
// calling its len_sync/read_sync exports, then spawns from those bytes
// unprivileged (spec §4.2). A cell whose len_sync returns zero yields an
// actor with empty source, which Spawn correctly reports as
// ModuleError{Compile} (spec §8 boundary case).
func (r *Rt) SpawnActorFrom(ctx context.Context, caller Address, cellAddr Address) (Address, error) {
	cell, ok := r.table.get(cellAddr)
	if !ok {
		return 0, errs.InvalidAddress(uint32(cellAddr))
	}
	if !cell.exportsMemoryCellProtocol() {
		return 0, fmt.Errorf("spawn_actor_from: actor %d does not export len_sync/read_sync", cellAddr)
	}

	lenResults, err := cell.call(ctx, "len_sync", nil)
	if err != nil {
		return 0, fmt.Errorf("spawn_actor_from: len_sync: %w", err)
	}
	n := api.DecodeI32(lenResults[0])

	bytes := make([]byte, 0, n)
	for i := int32(0); i < n; i++ {
		res, err := cell.call(ctx, "read_sync", []uint64{api.EncodeI32(i)})
		if err != nil {
			return 0, fmt.Errorf("spawn_actor_from: read_sync(%d): %w", i, err)
		}
		bytes = append(bytes, byte(api.DecodeI32(res[0])))
	}

	return r.Spawn(ctx, caller, bytes, false)
}

// Destroy frees addr's slot, making it eligible for reuse, and removes the
// actor's host-call caller registration. The runtime never calls this
// itself (spec §9 open question); it exists for an embedding that wants an
// actor-lifecycle policy.
func (r *Rt) Destroy(addr Address) error {
	actor, ok := r.table.get(addr)
	if !ok {
		return errs.InvalidAddress(uint32(addr))
	}
	// Closing the instance frees its instance name, so a later Spawn into
	// this recycled slot can instantiate under the same name again.
	_ = actor.instance.Close(context.Background())
	r.engine.UnregisterInstance(instanceName(addr))
	return r.table.freeAddr(addr)
}

package rt

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// PrivilegedHost is implemented by the embedding to back the two
// DOM/script privileged imports (spec §6: "Host-provided imports to the
// embedding"). Headless embeddings may stub both to fail uniformly, which
// is also this package's default (see noopPrivilegedHost).
type PrivilegedHost interface {
	AppendElement(kind, src string) bool // true on success
	EvalJS(src string) byte              // status byte; 0 typically means success
}

type noopPrivilegedHost struct{}

func (noopPrivilegedHost) AppendElement(string, string) bool { return false }
func (noopPrivilegedHost) EvalJS(string) byte                { return 1 }

// SetPrivilegedHost installs the embedding's DOM/eval_js backend. Until
// called, AppendElement and EvalJS both fail uniformly.
func (r *Rt) SetPrivilegedHost(h PrivilegedHost) {
	if h == nil {
		h = noopPrivilegedHost{}
	}
	r.privileged = h
}

// hostAdapter implements wasmhost.HostCalls against an *Rt, translating
// between the raw int32/uint32 wire types wazero's host functions use and
// Rt's Address-typed public API. Kept separate from Rt's own exported
// methods (Spawn, SpawnActor, SpawnActorFrom) so the two call surfaces —
// "Go API used by bootstrap/tests" and "ABI used by guest imports" — don't
// collide on method names or silently-differing error-handling policies.
type hostAdapter struct {
	rt *Rt
}

func (h hostAdapter) SendMessage(ctx context.Context, caller uint32, mem api.Memory, to int32, namePtr, argPtr uint32) {
	h.rt.handleSendMessage(ctx, Address(caller), mem, Address(uint32(to)), namePtr, argPtr)
}

func (h hostAdapter) SpawnActor(ctx context.Context, caller uint32, template int32) int32 {
	addr, err := h.rt.SpawnActor(ctx, Address(caller), Address(uint32(template)))
	if err != nil {
		h.rt.log.Debug("spawn_actor failed", zap.Uint32("caller", caller), zap.Error(err))
		return 0
	}
	return int32(uint32(addr))
}

func (h hostAdapter) SpawnActorFrom(ctx context.Context, caller uint32, cell int32) int32 {
	addr, err := h.rt.SpawnActorFrom(ctx, Address(caller), Address(uint32(cell)))
	if err != nil {
		h.rt.log.Debug("spawn_actor_from failed", zap.Uint32("caller", caller), zap.Error(err))
		return 0
	}
	return int32(uint32(addr))
}

func (h hostAdapter) Address(ctx context.Context, caller uint32) int32 {
	return int32(caller)
}

func (h hostAdapter) Print(ctx context.Context, caller uint32, mem api.Memory, msgPtr uint32) {
	actor, ok := h.rt.table.get(Address(caller))
	if !ok || !actor.privileged {
		// Unprivileged print is a documented no-op, present only so guest
		// modules that import it still link (spec §4.3, §9).
		return
	}
	msg, ok := readCString(mem, msgPtr)
	if !ok {
		return
	}
	h.rt.log.Info("guest print", zap.Uint32("actor", caller), zap.String("msg", msg))
	h.rt.prints.publish(PrintEvent{Actor: caller, Message: msg})
}

func (h hostAdapter) AppendElement(ctx context.Context, caller uint32, mem api.Memory, kindPtr, srcPtr uint32) int32 {
	actor, ok := h.rt.table.get(Address(caller))
	if !ok || !actor.privileged {
		return 1
	}
	kind, ok1 := readCString(mem, kindPtr)
	src, ok2 := readCString(mem, srcPtr)
	if !ok1 || !ok2 {
		return 1
	}
	if h.rt.privilegedHost().AppendElement(kind, src) {
		return 0
	}
	return 1
}

func (h hostAdapter) EvalJS(ctx context.Context, caller uint32, mem api.Memory, srcPtr uint32) int32 {
	actor, ok := h.rt.table.get(Address(caller))
	if !ok || !actor.privileged {
		return 1
	}
	src, ok := readCString(mem, srcPtr)
	if !ok {
		return 1
	}
	return int32(h.rt.privilegedHost().EvalJS(src))
}

// handleSendMessage implements spec §4.3.1 in full. Every failure path is a
// silent drop: the sending handler continues uninterrupted, and nothing
// about the drop is observable to the guest (only to the log sink, per
// spec §7: "send_message failures are silent drops (log-only)").
func (r *Rt) handleSendMessage(ctx context.Context, from Address, mem api.Memory, to Address, namePtr, argPtr uint32) {
	if from.IsHost() || to.IsHost() {
		// "If either address is zero, the call is silently dropped"
		// (spec §4.3.1) — guards against sending to/from the root sentinel.
		return
	}

	shortName, ok := readCString(mem, namePtr)
	if !ok {
		r.log.Debug("send_message: failed to read handler name", zap.Uint32("from", uint32(from)))
		return
	}

	receiver, ok := r.table.get(to)
	if !ok {
		r.log.Debug("send_message: unknown receiver", zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)))
		return
	}

	sig, ok := receiver.handlerSignature(shortName)
	if !ok {
		// "guests may optimistically send to handlers that the receiver
		// does not implement" (spec §4.3.1 step 2, §9 open question).
		r.log.Debug("send_message: receiver has no such handler",
			zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)), zap.String("handler", shortName))
		return
	}

	args, err := marshalArgs(sig, mem, argPtr)
	if err != nil {
		r.log.Debug("send_message: failed to marshal args", zap.Uint32("from", uint32(from)), zap.String("handler", shortName), zap.Error(err))
		return
	}

	full := make([]uint64, 0, len(args)+1)
	full = append(full, api.EncodeI32(int32(uint32(from))))
	full = append(full, args...)

	if err := r.mbx.sendTo(to, handlerPrefix+shortName, full); err != nil {
		r.log.Debug("send_message: enqueue failed", zap.Uint32("to", uint32(to)), zap.Error(err))
	}
}

func (r *Rt) privilegedHost() PrivilegedHost {
	if r.privileged == nil {
		return noopPrivilegedHost{}
	}
	return r.privileged
}

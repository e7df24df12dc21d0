package rt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmactors/actorhost/rt/errs"
)

// handlerPrefix is prepended to the short handler name carried in a
// send_message call to form the exported function name (spec §4.3.1 step 1,
// §4.6).
const handlerPrefix = "handle_"

// Actor is one activated guest instance: its retained source bytes, its
// compiled module, its live wazero instance, and the ABI cached from that
// instance's exports. Spec §3 invariant (b): these four are created and
// destroyed together.
type Actor struct {
	addr       Address
	privileged bool

	bytes    []byte
	compiled wazero.CompiledModule
	instance api.Module

	// abi maps exported function name (including the handle_ prefix, plus
	// init/init_async/len_sync/read_sync/alloc/append) to its cached
	// signature. Read-only after instantiation (spec §3 invariant (c), §5
	// "no lock is needed after publication").
	abi map[string]Signature

	// storeMu serializes handler invocations against this actor's
	// execution state, standing in for "the store" in spec §3/§5: exactly
	// one handler call may be in flight at a time, and nested invocation of
	// two handlers on the same actor is forbidden (and would deadlock).
	storeMu sync.Mutex
}

// instanceName returns the unique wazero module-instance name used for
// actor at addr, which doubles as the key the host-call surface uses to
// resolve "who is calling me" (rt/wasmhost.Engine.callerOf).
func instanceName(addr Address) string {
	return fmt.Sprintf("actor:%d", uint32(addr))
}

// cacheSignatures builds the ABI cache for a freshly instantiated actor by
// inspecting its compiled module's exported functions. externref/funcref
// parameters are rejected outright (spec §4.3.1 step 3): a handler
// declaring one is omitted from the cache, which means send_message will
// never find it and any attempt to invoke it will be a silent drop, same as
// a missing export.
func cacheSignatures(compiled wazero.CompiledModule) map[string]Signature {
	out := make(map[string]Signature)
	for name, def := range compiled.ExportedFunctions() {
		sig, ok := signatureOf(name, def)
		if !ok {
			continue
		}
		out[name] = sig
	}
	return out
}

func signatureOf(name string, def api.FunctionDefinition) (Signature, bool) {
	params := def.ParamTypes()
	results := def.ResultTypes()

	sig := Signature{Name: name}
	for _, p := range params {
		k, ok := valKindFromAPI(p)
		if !ok {
			return Signature{}, false
		}
		sig.Params = append(sig.Params, k)
	}
	for _, r := range results {
		k, ok := valKindFromAPI(r)
		if !ok {
			return Signature{}, false
		}
		sig.Results = append(sig.Results, k)
	}
	return sig, true
}

// handlerSignature looks up the cached signature for the full
// "handle_<name>" export. Returns false if the actor does not implement
// that handler, which callers must treat as a silent drop (spec §4.3.1
// step 2, §7).
func (a *Actor) handlerSignature(shortName string) (Signature, bool) {
	sig, ok := a.abi[handlerPrefix+shortName]
	return sig, ok
}

// exportsMemoryCellProtocol reports whether the actor exports len_sync()
// i32 and read_sync(i32) i32, the protocol spawn_actor_from uses to read a
// memory cell's contents back out (spec §4.2).
func (a *Actor) exportsMemoryCellProtocol() bool {
	lenSig, ok := a.abi["len_sync"]
	if !ok || len(lenSig.Params) != 0 || len(lenSig.Results) != 1 || lenSig.Results[0] != KindI32 {
		return false
	}
	readSig, ok := a.abi["read_sync"]
	if !ok || len(readSig.Params) != 1 || readSig.Params[0] != KindI32 {
		return false
	}
	if len(readSig.Results) != 1 || readSig.Results[0] != KindI32 {
		return false
	}
	return true
}

// call invokes the exported function name against this actor's instance
// while holding storeMu, so no two handler invocations on the same actor
// are ever in flight concurrently (spec §5).
func (a *Actor) call(ctx context.Context, name string, args []uint64) ([]uint64, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	fn := a.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errs.NewModuleError(errs.Export, fmt.Errorf("actor %d: no export named %q", a.addr, name))
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errs.NewModuleError(errs.Runtime, fmt.Errorf("actor %d: invoking %q: %w", a.addr, name, err))
	}
	return results, nil
}

// readCString reads a NUL-terminated UTF-8 string out of mem starting at
// ptr. Used for both send_message's handler-name argument and print's
// message argument (spec §4.3.1 step 1, §6).
func readCString(mem api.Memory, ptr uint32) (string, bool) {
	var sb strings.Builder
	for i := uint32(0); ; i++ {
		b, ok := mem.ReadByte(ptr + i)
		if !ok {
			return "", false
		}
		if b == 0 {
			return sb.String(), true
		}
		sb.WriteByte(b)
		// Defend against a missing NUL terminator walking off the end of
		// memory indefinitely; cap at 64KiB, far beyond any realistic
		// handler name or log line.
		if i > 64*1024 {
			return "", false
		}
	}
}

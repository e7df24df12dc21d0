// Package wasmhost wraps wazero with the small, fixed host-call surface the
// actor ABI needs (spec §4.3): send_message, spawn_actor, spawn_actor_from,
// address, and the privileged print/append_element/eval_js trio.
//
// Grounded on the teacher's (griffin-nola) use of wazero as its WASM engine
// (virtual/activations.go: "durablewazero.NewModule(ctx, wazero.Engine(), ...)")
// and, for the modern api.Module-based host function style actually used
// here, other_examples/.../sdn-wasi-internal-host-host.go.go, which shows
// the idiomatic wazero.NewHostModuleBuilder/WithFunc/api.Module pattern this
// file follows.
package wasmhost

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// HostCalls is implemented by the runtime and invoked by the shared "env"
// host module for every guest import. caller is the calling actor's
// address, resolved from the calling module's instance name — never
// forgeable from guest code since it is derived from which wazero module
// instance is executing, not from any guest-supplied value.
type HostCalls interface {
	SendMessage(ctx context.Context, caller uint32, mem api.Memory, to int32, namePtr, argPtr uint32)
	SpawnActor(ctx context.Context, caller uint32, template int32) int32
	SpawnActorFrom(ctx context.Context, caller uint32, cell int32) int32
	Address(ctx context.Context, caller uint32) int32
	Print(ctx context.Context, caller uint32, mem api.Memory, msgPtr uint32)
	AppendElement(ctx context.Context, caller uint32, mem api.Memory, kindPtr, srcPtr uint32) int32
	EvalJS(ctx context.Context, caller uint32, mem api.Memory, srcPtr uint32) int32
}

// Engine owns the wazero runtime, the single shared "env" host module, and
// the instance-name -> address registry host functions use to identify
// their caller.
type Engine struct {
	runtime wazero.Runtime

	mu        sync.RWMutex
	callerIDs map[string]uint32 // instance name -> address

	calls HostCalls
}

// NewEngine creates a wazero runtime and wires the shared host module
// against calls. calls is typically the Rt itself.
func NewEngine(ctx context.Context, calls HostCalls) (*Engine, error) {
	e := &Engine{
		runtime:   wazero.NewRuntime(ctx),
		callerIDs: make(map[string]uint32),
		calls:     calls,
	}
	if err := e.buildHostModule(ctx); err != nil {
		e.runtime.Close(ctx)
		return nil, err
	}
	return e, nil
}

func (e *Engine) callerOf(mod api.Module) uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.callerIDs[mod.Name()]
}

// RegisterInstance associates an instantiated module's name with its
// actor address so that subsequent host calls made from it resolve to the
// right caller. Must be called before the instance can legitimately call
// into the host (i.e. immediately after instantiation).
func (e *Engine) RegisterInstance(name string, addr uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callerIDs[name] = addr
}

// UnregisterInstance removes name from the caller registry. Called when an
// actor is destroyed (spec §9 open question: destroy is exposed but never
// invoked by the runtime itself).
func (e *Engine) UnregisterInstance(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.callerIDs, name)
}

func (e *Engine) buildHostModule(ctx context.Context) error {
	b := e.runtime.NewHostModuleBuilder("env")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, to, namePtr, argPtr int32) {
			e.calls.SendMessage(ctx, e.callerOf(mod), mod.Memory(), to, uint32(namePtr), uint32(argPtr))
		}).
		Export("send_message")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, template int32) int32 {
			return e.calls.SpawnActor(ctx, e.callerOf(mod), template)
		}).
		Export("spawn_actor")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, cell int32) int32 {
			return e.calls.SpawnActorFrom(ctx, e.callerOf(mod), cell)
		}).
		Export("spawn_actor_from")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module) int32 {
			return e.calls.Address(ctx, e.callerOf(mod))
		}).
		Export("address")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, msgPtr int32) {
			e.calls.Print(ctx, e.callerOf(mod), mod.Memory(), uint32(msgPtr))
		}).
		Export("print")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, kindPtr, srcPtr int32) int32 {
			return e.calls.AppendElement(ctx, e.callerOf(mod), mod.Memory(), uint32(kindPtr), uint32(srcPtr))
		}).
		Export("append_element")

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, srcPtr int32) int32 {
			return e.calls.EvalJS(ctx, e.callerOf(mod), mod.Memory(), uint32(srcPtr))
		}).
		Export("eval_js")

	_, err := b.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("error instantiating shared env host module: %w", err)
	}
	return nil
}

// Compile compiles guest module bytes.
func (e *Engine) Compile(ctx context.Context, bytes []byte) (wazero.CompiledModule, error) {
	return e.runtime.CompileModule(ctx, bytes)
}

// Instantiate instantiates a compiled module under the given unique
// instance name.
func (e *Engine) Instantiate(ctx context.Context, compiled wazero.CompiledModule, name string) (api.Module, error) {
	cfg := wazero.NewModuleConfig().WithName(name)
	return e.runtime.InstantiateModule(ctx, compiled, cfg)
}

// Close releases the underlying wazero runtime and everything instantiated
// against it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

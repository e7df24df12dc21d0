package wasmhost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

type noopHostCalls struct{}

func (noopHostCalls) SendMessage(context.Context, uint32, api.Memory, int32, uint32, uint32) {}
func (noopHostCalls) SpawnActor(context.Context, uint32, int32) int32                        { return 0 }
func (noopHostCalls) SpawnActorFrom(context.Context, uint32, int32) int32                    { return 0 }
func (noopHostCalls) Address(context.Context, uint32) int32                                  { return 0 }
func (noopHostCalls) Print(context.Context, uint32, api.Memory, uint32)                      {}
func (noopHostCalls) AppendElement(context.Context, uint32, api.Memory, uint32, uint32) int32 {
	return 1
}
func (noopHostCalls) EvalJS(context.Context, uint32, api.Memory, uint32) int32 { return 1 }

func TestNewEngineBuildsSharedHostModule(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, noopHostCalls{})
	require.NoError(t, err)
	require.NoError(t, e.Close(ctx))
}

func TestCompileRejectsGarbageBytes(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, noopHostCalls{})
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.Compile(ctx, []byte("not a wasm module"))
	require.Error(t, err)
}

func TestRegisterAndUnregisterInstanceAreIdempotent(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, noopHostCalls{})
	require.NoError(t, err)
	defer e.Close(ctx)

	e.RegisterInstance("actor:1", 1)
	require.Equal(t, uint32(1), e.callerIDs["actor:1"])

	e.UnregisterInstance("actor:1")
	_, ok := e.callerIDs["actor:1"]
	require.False(t, ok)

	// Unregistering something never registered must not panic.
	e.UnregisterInstance("actor:no-such-instance")
}

package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleErrorKindString(t *testing.T) {
	require.Equal(t, "compile", Compile.String())
	require.Equal(t, "instantiation", Instantiation.String())
	require.Equal(t, "runtime", Runtime.String())
	require.Equal(t, "export", Export.String())
	require.Equal(t, "unknown", ModuleErrorKind(99).String())
}

func TestNewModuleErrorWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewModuleError(Runtime, cause)
	require.True(t, IsModuleError(err, Runtime))
	require.False(t, IsModuleError(err, Compile))
	require.ErrorIs(t, err, cause)
}

func TestNewModuleErrorNilPassesThrough(t *testing.T) {
	require.NoError(t, NewModuleError(Runtime, nil))
}

func TestSentinelPredicates(t *testing.T) {
	require.True(t, IsNoFreeAddrs(NoFreeAddrs()))
	require.False(t, IsNoFreeAddrs(errors.New("unrelated")))

	require.True(t, IsLockError(LockError("mailboxes")))
	require.True(t, IsInvalidAddress(InvalidAddress(7)))
	require.True(t, IsSerializationError(SerializationError(errors.New("cause"))))
	require.True(t, IsSerializationError(SerializationError(nil)))
}

func TestInvalidAddressIncludesTheAddress(t *testing.T) {
	err := InvalidAddress(42)
	require.Contains(t, err.Error(), "42")
}

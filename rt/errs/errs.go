// Package errs contains the sentinel error kinds the runtime surfaces to
// callers, mirroring the wrap-and-expose-a-predicate shape the registry
// package uses for errActorDoesNotExist/IsActorDoesNotExistErr.
package errs

import (
	"errors"
	"fmt"
)

// ModuleErrorKind identifies which phase of WASM module handling failed.
type ModuleErrorKind int

const (
	// Compile indicates the module bytes could not be compiled.
	Compile ModuleErrorKind = iota
	// Instantiation indicates the compiled module could not be instantiated
	// (import resolution, start function, memory limits, ...).
	Instantiation
	// Runtime indicates a trap or error while invoking an exported function.
	Runtime
	// Export indicates an expected export was missing or had the wrong type.
	Export
)

func (k ModuleErrorKind) String() string {
	switch k {
	case Compile:
		return "compile"
	case Instantiation:
		return "instantiation"
	case Runtime:
		return "runtime"
	case Export:
		return "export"
	default:
		return "unknown"
	}
}

var (
	errNoFreeAddrs    = errors.New("no free addresses remain")
	errLock           = errors.New("could not acquire lock")
	errInvalidAddress = errors.New("invalid address")
	errSerialization  = errors.New("could not serialize impulse value")
)

// ModuleError wraps a WASM compile/instantiation/runtime/export failure.
type ModuleError struct {
	Kind ModuleErrorKind
	Err  error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module error (%s): %v", e.Kind, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// NewModuleError wraps err with the given kind.
func NewModuleError(kind ModuleErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &ModuleError{Kind: kind, Err: err}
}

// NoFreeAddrs returns the sentinel NoFreeAddrs error.
func NoFreeAddrs() error { return errNoFreeAddrs }

// IsNoFreeAddrs reports whether err is (or wraps) NoFreeAddrs.
func IsNoFreeAddrs(err error) bool { return errors.Is(err, errNoFreeAddrs) }

// LockError returns the sentinel LockError.
func LockError(context string) error {
	return fmt.Errorf("%s: %w", context, errLock)
}

// IsLockError reports whether err is (or wraps) LockError.
func IsLockError(err error) bool { return errors.Is(err, errLock) }

// InvalidAddress returns the sentinel InvalidAddress error for addr.
func InvalidAddress(addr uint32) error {
	return fmt.Errorf("address %d: %w", addr, errInvalidAddress)
}

// IsInvalidAddress reports whether err is (or wraps) InvalidAddress.
func IsInvalidAddress(err error) bool { return errors.Is(err, errInvalidAddress) }

// SerializationError wraps a failure to encode an impulse_js value.
func SerializationError(err error) error {
	if err == nil {
		return errSerialization
	}
	return fmt.Errorf("%w: %v", errSerialization, err)
}

// IsSerializationError reports whether err is (or wraps) SerializationError.
func IsSerializationError(err error) bool { return errors.Is(err, errSerialization) }

// IsModuleError reports whether err is a *ModuleError of the given kind.
func IsModuleError(err error, kind ModuleErrorKind) bool {
	var me *ModuleError
	if errors.As(err, &me) {
		return me.Kind == kind
	}
	return false
}

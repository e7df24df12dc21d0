package rt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmactors/actorhost/rt/errs"
)

// Impulse enqueues one externally originated delivery into a specific
// actor's mailbox (spec §4.5). from is HostAddress when the impulse has no
// actor origin. params must already be encoded as the receiver's expected
// wire words — see ImpulseJS for the heterogeneous-value entry point the
// JS/host embedding actually uses.
func (r *Rt) Impulse(ctx context.Context, from, to Address, name string, params []uint64) error {
	receiver, ok := r.table.get(to)
	if !ok {
		return errs.InvalidAddress(uint32(to))
	}
	if _, ok := receiver.handlerSignature(name); !ok {
		return fmt.Errorf("impulse: actor %d has no handler %q", to, name)
	}

	full := make([]uint64, 0, len(params)+1)
	full = append(full, api.EncodeI32(int32(uint32(from))))
	full = append(full, params...)
	return r.mbx.sendTo(to, handlerPrefix+name, full)
}

// ImpulseAll enqueues one delivery to every currently allocated slot (spec
// §4.5), used for broadcast events such as display_login. Actors that
// don't implement the handler are skipped: the error Impulse returns for
// them is logged at debug level and not returned, like send_message's
// silent-drop policy.
func (r *Rt) ImpulseAll(ctx context.Context, from Address, name string, params []uint64) {
	for _, addr := range r.table.allActive() {
		if err := r.Impulse(ctx, from, addr, name, params); err != nil {
			r.log.Debug("impulse_all: skipping actor", zap.Uint32("actor", uint32(addr)), zap.Error(err))
		}
	}
}

// JSValue is one heterogeneous host/JS-originated parameter to ImpulseJS
// (spec §4.5): it mirrors the handful of shapes a JS host call could pass
// (number, or "anything else", which gets boxed through the mock
// allocator).
type JSValue struct {
	// Number, if non-nil, is encoded per the finite/integer/fits-in-u32
	// rules below. Anything else falls through to JSON + mock-allocator
	// boxing.
	Number *float64
	Other  any
}

// ImpulseJS accepts heterogeneous host values, coerces them to the guest
// ABI, and enqueues the delivery (spec §4.5):
//
//   - a finite number whose fractional part is zero and which fits in
//     unsigned 32-bit is encoded as i32; if it doesn't fit, i64; non-integer
//     numbers become f64.
//   - anything else is JSON-serialized, boxed into a cell allocated via the
//     well-known mock allocator's alloc/append exports, and passed as the
//     cell's i32 address.
func (r *Rt) ImpulseJS(ctx context.Context, from, to Address, name string, values []JSValue) error {
	correlationID := uuid.NewString()

	words := make([]uint64, 0, len(values))
	for i, v := range values {
		w, err := r.coerceJSValue(ctx, v)
		if err != nil {
			return errs.SerializationError(fmt.Errorf("impulse_js[%d] (correlation %s): %w", i, correlationID, err))
		}
		words = append(words, w...)
	}

	r.log.Debug("impulse_js", zap.String("correlation_id", correlationID),
		zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)), zap.String("name", name))
	return r.Impulse(ctx, from, to, name, words)
}

func (r *Rt) coerceJSValue(ctx context.Context, v JSValue) ([]uint64, error) {
	if v.Number != nil {
		n := *v.Number
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, fmt.Errorf("non-finite number %v", n)
		}
		if n == math.Trunc(n) {
			if n >= 0 && n <= math.MaxUint32 {
				return []uint64{api.EncodeI32(int32(uint32(n)))}, nil
			}
			if n >= math.MinInt64 && n <= math.MaxInt64 {
				return []uint64{uint64(int64(n))}, nil
			}
		}
		return []uint64{api.EncodeF64(n)}, nil
	}

	payload, err := json.Marshal(v.Other)
	if err != nil {
		return nil, fmt.Errorf("marshaling JS value to JSON: %w", err)
	}

	cellAddr, err := r.allocMockCell(ctx, payload)
	if err != nil {
		return nil, err
	}
	return []uint64{api.EncodeI32(int32(uint32(cellAddr)))}, nil
}

// allocMockCell creates a cell via the well-known mock allocator's alloc
// export — which, per original_source/.../beacon_dao-mock_alloc/src/lib.rs,
// spawns a fresh child actor running the same allocator module to act as
// the cell — then appends payload to that cell one byte at a time via its
// own append export, returning the cell's address for use as a boxed i32
// argument (spec §4.5, §4.6).
func (r *Rt) allocMockCell(ctx context.Context, payload []byte) (Address, error) {
	allocator, ok := r.table.get(MockAllocator)
	if !ok {
		return 0, fmt.Errorf("mock allocator not spawned at well-known address %d", MockAllocator)
	}

	results, err := allocator.call(ctx, "alloc", nil)
	if err != nil || len(results) == 0 {
		return 0, fmt.Errorf("mock allocator alloc() failed: %w", err)
	}
	cellAddr := Address(uint32(api.DecodeI32(results[0])))

	cell, ok := r.table.get(cellAddr)
	if !ok {
		return 0, fmt.Errorf("mock allocator alloc() returned unknown address %d", cellAddr)
	}
	for i, b := range payload {
		if _, err := cell.call(ctx, "append", []uint64{api.EncodeI32(int32(b))}); err != nil {
			return 0, fmt.Errorf("mock allocator cell %d: append() failed at byte %d: %w", cellAddr, i, err)
		}
	}
	return cellAddr, nil
}

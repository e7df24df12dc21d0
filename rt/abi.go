package rt

import (
	"encoding/binary"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// ValKind is one of the scalar WebAssembly types the guest ABI permits as a
// handler parameter (spec §4.3.1), including v128. externref/funcref are
// never representable here — they are rejected at signature-caching time.
type ValKind uint8

const (
	KindI32 ValKind = iota
	KindI64
	KindF32
	KindF64
	KindV128
)

// byteWidth returns the little-endian encoded width of a value of kind k,
// per spec §4.3.1's parameter byte widths table.
func (k ValKind) byteWidth() int {
	switch k {
	case KindI32, KindF32:
		return 4
	case KindI64, KindF64:
		return 8
	case KindV128:
		return 16
	default:
		return 0
	}
}

func valKindFromAPI(t api.ValueType) (ValKind, bool) {
	switch t {
	case api.ValueTypeI32:
		return KindI32, true
	case api.ValueTypeI64:
		return KindI64, true
	case api.ValueTypeF32:
		return KindF32, true
	case api.ValueTypeF64:
		return KindF64, true
	case api.ValueTypeV128:
		return KindV128, true
	default:
		// Only externref and funcref fall through here — neither is
		// representable as a scalar argument (spec §4.3.1).
		return 0, false
	}
}

// Signature is the cached ABI for one exported guest function: its
// parameter and result types, captured once at instantiation (spec §3,
// invariant (c): "the cached ABI ... is never mutated").
type Signature struct {
	Name    string
	Params  []ValKind
	Results []ValKind
}

// decodeArg reads one little-endian scalar of kind k out of raw and returns
// it encoded the way wazero's generic Function.Call wants params: one
// uint64 per word, with v128 occupying two consecutive words.
//
// TODO: verify this against wazero's actual v128 calling-convention once a
// host-call round trip through a real SIMD-using guest is exercised; the
// two-word low/high split here matches wazero's internal stack layout as of
// v1.9 but is not part of its documented public API.
func decodeArg(k ValKind, raw []byte) []uint64 {
	switch k {
	case KindI32:
		return []uint64{api.EncodeI32(int32(binary.LittleEndian.Uint32(raw)))}
	case KindI64:
		return []uint64{binary.LittleEndian.Uint64(raw)}
	case KindF32:
		return []uint64{api.EncodeF32(math.Float32frombits(binary.LittleEndian.Uint32(raw)))}
	case KindF64:
		return []uint64{api.EncodeF64(math.Float64frombits(binary.LittleEndian.Uint64(raw)))}
	case KindV128:
		lo := binary.LittleEndian.Uint64(raw[0:8])
		hi := binary.LittleEndian.Uint64(raw[8:16])
		return []uint64{lo, hi}
	default:
		return nil
	}
}

package rt

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// marshalArgs implements spec §4.3.1 steps 3-4: for each declared parameter
// after the first (the injected `from`), read its raw little-endian bytes
// from the sender's linear memory starting at argPtr and advancing by the
// parameter's byte width, then decode it into wazero's wide-word call
// representation.
//
// Any read past the end of memory is reported as an error; callers treat
// that as a silent per-message drop (spec §4.3.1: "Any step's failure ...
// results in a silent drop of that one message").
func marshalArgs(sig Signature, mem api.Memory, argPtr uint32) ([]uint64, error) {
	if len(sig.Params) == 0 {
		// No declared parameters at all means the handler doesn't even take
		// `from` — not a valid handler signature, but nothing to marshal.
		return nil, nil
	}

	// sig.Params[0] is the reserved `from` slot; actual wire parameters
	// start at index 1.
	wireParams := sig.Params[1:]

	out := make([]uint64, 0, len(wireParams)+1)
	offset := argPtr
	for i, k := range wireParams {
		width := k.byteWidth()
		raw, ok := mem.Read(offset, uint32(width))
		if !ok {
			return nil, fmt.Errorf("marshalArgs: out-of-bounds read for param %d (kind %d) at offset %d", i+1, k, offset)
		}
		out = append(out, decodeArg(k, raw)...)
		offset += uint32(width)
	}
	return out, nil
}

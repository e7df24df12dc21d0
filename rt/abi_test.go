package rt

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

func TestDecodeArgI32(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(int32(-7)))

	words := decodeArg(KindI32, raw)
	require.Len(t, words, 1)
	require.Equal(t, int32(-7), api.DecodeI32(words[0]))
}

func TestDecodeArgI64(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, uint64(int64(-123456789)))

	words := decodeArg(KindI64, raw)
	require.Len(t, words, 1)
	require.Equal(t, int64(-123456789), int64(words[0]))
}

func TestDecodeArgF32(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, math.Float32bits(3.5))

	words := decodeArg(KindF32, raw)
	require.Len(t, words, 1)
	require.InDelta(t, float32(3.5), api.DecodeF32(words[0]), 0.0001)
}

func TestDecodeArgF64(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, math.Float64bits(2.71828))

	words := decodeArg(KindF64, raw)
	require.Len(t, words, 1)
	require.InDelta(t, 2.71828, api.DecodeF64(words[0]), 0.00001)
}

func TestDecodeArgV128SplitsIntoTwoWords(t *testing.T) {
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint64(raw[0:8], 0x0102030405060708)
	binary.LittleEndian.PutUint64(raw[8:16], 0x1112131415161718)

	words := decodeArg(KindV128, raw)
	require.Equal(t, []uint64{0x0102030405060708, 0x1112131415161718}, words)
}

func TestByteWidth(t *testing.T) {
	require.Equal(t, 4, KindI32.byteWidth())
	require.Equal(t, 4, KindF32.byteWidth())
	require.Equal(t, 8, KindI64.byteWidth())
	require.Equal(t, 8, KindF64.byteWidth())
	require.Equal(t, 16, KindV128.byteWidth())
}

func TestValKindFromAPIRejectsReferenceTypes(t *testing.T) {
	_, ok := valKindFromAPI(api.ValueTypeExternref)
	require.False(t, ok)
	_, ok = valKindFromAPI(api.ValueTypeFuncref)
	require.False(t, ok)

	k, ok := valKindFromAPI(api.ValueTypeI32)
	require.True(t, ok)
	require.Equal(t, KindI32, k)
}

func TestValKindFromAPIAcceptsV128(t *testing.T) {
	k, ok := valKindFromAPI(api.ValueTypeV128)
	require.True(t, ok, "v128 is a scalar argument kind (spec §4.3.1), not a reference type — it must be accepted")
	require.Equal(t, KindV128, k)
}

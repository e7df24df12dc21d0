package rt

// Minimal hand-assembled WASM binaries used by the rt package's
// integration tests (no wat2wasm, no Go toolchain invocation — just the
// raw module/section/instruction encoding from the WebAssembly binary
// format spec, assembled through small composable builders below so a
// section's size/count prefixes are always computed, never hand-counted).

const (
	opLocalGet  = 0x20
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Const  = 0x41
	opI64Const  = 0x42
	opCall      = 0x10
	opNop       = 0x01
	opEnd       = 0x0B

	valI32  = 0x7F
	valI64  = 0x7E
	valV128 = 0x7B

	kindFunc   = 0x00
	kindMemory = 0x02
)

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		out = append(out, b)
		return out
	}
}

func u32v(n int) []byte { return uleb128(uint32(n)) }

func strBytes(s string) []byte {
	return append(u32v(len(s)), []byte(s)...)
}

func wrapSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(content)))...)
	return append(out, content...)
}

func funcType(params, results []byte) []byte {
	b := []byte{0x60}
	b = append(b, u32v(len(params))...)
	b = append(b, params...)
	b = append(b, u32v(len(results))...)
	return append(b, results...)
}

func typeSection(types ...[]byte) []byte {
	b := u32v(len(types))
	for _, t := range types {
		b = append(b, t...)
	}
	return wrapSection(0x01, b)
}

type importDef struct {
	module, field string
	typeIdx       int
}

func importSection(imports ...importDef) []byte {
	b := u32v(len(imports))
	for _, i := range imports {
		b = append(b, strBytes(i.module)...)
		b = append(b, strBytes(i.field)...)
		b = append(b, kindFunc)
		b = append(b, u32v(i.typeIdx)...)
	}
	return wrapSection(0x02, b)
}

func funcSection(typeIdxs ...int) []byte {
	b := u32v(len(typeIdxs))
	for _, i := range typeIdxs {
		b = append(b, u32v(i)...)
	}
	return wrapSection(0x03, b)
}

func memorySection(minPages int) []byte {
	b := u32v(1)
	b = append(b, 0x00)
	b = append(b, u32v(minPages)...)
	return wrapSection(0x05, b)
}

type globalDef struct {
	valtype  byte
	initExpr []byte // e.g. {opI32Const, 0x00} for a constant-zero init
}

func globalSection(globals ...globalDef) []byte {
	b := u32v(len(globals))
	for _, g := range globals {
		b = append(b, g.valtype, 0x01) // always mutable
		b = append(b, g.initExpr...)
		b = append(b, opEnd)
	}
	return wrapSection(0x06, b)
}

type exportDef struct {
	name string
	kind byte
	idx  int
}

func exportSection(exports ...exportDef) []byte {
	b := u32v(len(exports))
	for _, e := range exports {
		b = append(b, strBytes(e.name)...)
		b = append(b, e.kind)
		b = append(b, u32v(e.idx)...)
	}
	return wrapSection(0x07, b)
}

func funcBody(instrs []byte) []byte {
	body := append([]byte{0x00}, instrs...) // 0x00: zero local-declaration groups
	body = append(body, opEnd)
	return append(u32v(len(body)), body...)
}

func codeSection(bodies ...[]byte) []byte {
	b := u32v(len(bodies))
	for _, body := range bodies {
		b = append(b, body...)
	}
	return wrapSection(0x0A, b)
}

type dataSegment struct {
	offset int
	bytes  []byte
}

func dataSection(segments ...dataSegment) []byte {
	b := u32v(len(segments))
	for _, s := range segments {
		b = append(b, 0x00)       // active segment, memory index 0
		b = append(b, opI32Const) // offset expr: i32.const <offset>
		b = append(b, u32v(s.offset)...)
		b = append(b, opEnd)
		b = append(b, u32v(len(s.bytes))...)
		b = append(b, s.bytes...)
	}
	return wrapSection(0x0B, b)
}

func localGet(idx int) []byte  { return []byte{opLocalGet, byte(idx)} }
func globalGet(idx int) []byte { return []byte{opGlobalGet, byte(idx)} }
func globalSet(idx int) []byte { return []byte{opGlobalSet, byte(idx)} }
func call(idx int) []byte      { return []byte{opCall, byte(idx)} }

func module(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00} // \0asm, version 1
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// buildEchoModule returns a module exporting:
//   - memory
//   - init_async(from i32)           — no-op
//   - handle_display_login(from i32) — no-op, reuses init_async's body
//   - handle_echo(from i32, val i32) — stores val into a global
//   - get_last_echo() i32            — reads that global back
//
// Used for spec §8 scenario 2 ("single echo") and for bootstrap tests,
// since every bootstrap actor needs at least a handle_display_login export
// for Rt.Start's closing impulse to succeed.
func buildEchoModule() []byte {
	types := typeSection(
		funcType([]byte{valI32}, nil),         // type0: (i32) -> ()
		funcType([]byte{valI32, valI32}, nil),  // type1: (i32, i32) -> ()
		funcType(nil, []byte{valI32}),          // type2: () -> (i32)
	)
	funcs := funcSection(0, 1, 2)
	mem := memorySection(1)
	globals := globalSection(globalDef{valtype: valI32, initExpr: []byte{opI32Const, 0x00}})
	exports := exportSection(
		exportDef{"memory", kindMemory, 0},
		exportDef{"init_async", kindFunc, 0},
		exportDef{"handle_display_login", kindFunc, 0},
		exportDef{"handle_echo", kindFunc, 1},
		exportDef{"get_last_echo", kindFunc, 2},
	)
	code := codeSection(
		funcBody([]byte{opNop}),                                       // func0: init_async / handle_display_login
		funcBody(append(localGet(1), globalSet(0)...)),                // func1: handle_echo
		funcBody(globalGet(0)),                                        // func2: get_last_echo
	)
	return module(types, funcs, mem, globals, exports, code)
}

// buildMixSenderModule returns a module that imports send_message and
// exports trigger_send(to i32), which calls send_message(to, "mix", argPtr)
// where argPtr points at a statically initialized (i32, i64) argument pair
// packed into the sender's own linear memory (spec §4.3.1: arguments are
// read out of the *sender's* memory).
func buildMixSenderModule() []byte {
	types := typeSection(
		funcType([]byte{valI32, valI32, valI32}, nil), // type0: send_message's signature
		funcType([]byte{valI32}, nil),                 // type1: trigger_send(to)
	)
	imports := importSection(importDef{module: "env", field: "send_message", typeIdx: 0})
	funcs := funcSection(1) // one locally defined function, using type1
	mem := memorySection(1)
	exports := exportSection(
		exportDef{"memory", kindMemory, 0},
		exportDef{"trigger_send", kindFunc, 1}, // function index 1: index 0 is the import
	)
	data := dataSection(
		dataSegment{offset: 0, bytes: append([]byte("mix"), 0x00)}, // namePtr=0: NUL-terminated "mix"
		dataSegment{offset: 16, bytes: []byte{ // argPtr=16: packed (i32 a=7, i64 b=0x0102030405060708)
			0x07, 0x00, 0x00, 0x00,
			0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		}},
	)
	var body []byte
	body = append(body, localGet(0)...)               // to
	body = append(body, opI32Const)                   // namePtr
	body = append(body, u32v(0)...)
	body = append(body, opI32Const) // argPtr
	body = append(body, u32v(16)...)
	body = append(body, call(0)...) // call send_message (import index 0)
	code := codeSection(funcBody(body))
	return module(types, imports, funcs, mem, exports, code, data)
}

// buildMixReceiverModule returns a module exporting:
//   - handle_mix(from i32, a i32, b i64) — stores a and b into globals
//   - get_mix_a() i32
//   - get_mix_b() i64
//
// Used together with buildMixSenderModule for spec §8 scenario 4
// ("argument-width mix"): a real send_message host call marshals a mixed
// i32/i64 argument pair out of the sender's linear memory per the
// receiver's cached ABI.
func buildMixReceiverModule() []byte {
	types := typeSection(
		funcType([]byte{valI32, valI32, valI64}, nil), // type0: handle_mix
		funcType(nil, []byte{valI32}),                 // type1: get_mix_a
		funcType(nil, []byte{valI64}),                 // type2: get_mix_b
	)
	funcs := funcSection(0, 1, 2)
	globals := globalSection(
		globalDef{valtype: valI32, initExpr: []byte{opI32Const, 0x00}},
		globalDef{valtype: valI64, initExpr: []byte{opI64Const, 0x00}},
	)
	exports := exportSection(
		exportDef{"handle_mix", kindFunc, 0},
		exportDef{"get_mix_a", kindFunc, 1},
		exportDef{"get_mix_b", kindFunc, 2},
	)
	var mixBody []byte
	mixBody = append(mixBody, localGet(1)...)
	mixBody = append(mixBody, globalSet(0)...)
	mixBody = append(mixBody, localGet(2)...)
	mixBody = append(mixBody, globalSet(1)...)
	code := codeSection(
		funcBody(mixBody),
		funcBody(globalGet(0)),
		funcBody(globalGet(1)),
	)
	return module(types, funcs, globals, exports, code)
}

// buildV128HandlerModule returns a module exporting a single handler,
// handle_v128(from i32, val v128), that ignores its arguments. It exists
// solely to prove that a v128-typed handler parameter survives
// cacheSignatures instead of being silently excluded from an actor's ABI
// like externref/funcref are (spec §4.3.1).
func buildV128HandlerModule() []byte {
	types := typeSection(funcType([]byte{valI32, valV128}, nil))
	funcs := funcSection(0)
	exports := exportSection(exportDef{"handle_v128", kindFunc, 0})
	code := codeSection(funcBody([]byte{opNop}))
	return module(types, funcs, exports, code)
}

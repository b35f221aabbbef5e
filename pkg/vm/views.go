package vm

import (
	"encoding/binary"
	"math"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

// viewIndex maps a logical cell k to the byte-view index the aliased
// stack uses for a value of type t: 64-bit-width types address cell k
// directly; 32-bit-width types address the high 32 bits of cell k,
// i.e. view-index 2k+1. This placement is load-bearing for bit-exact
// compatibility and must not be "simplified" to k/2 or similar.
func viewIndex(t bytecode.TypeTag, k int) int {
	if t.Width64() {
		return k
	}
	return 2*k + 1
}

// rawU64 reads/writes the full 8-byte cell k regardless of logical
// type — used by Dup, Load, Store and Ret, which move cells without
// interpreting them.
func (c *Context) rawU64(k int) uint64 {
	return binary.LittleEndian.Uint64(c.stack[k*8:])
}

func (c *Context) setRawU64(k int, v uint64) {
	binary.LittleEndian.PutUint64(c.stack[k*8:], v)
}

func (c *Context) readI64(k int) int64 { return int64(c.rawU64(k)) }
func (c *Context) writeI64(k int, v int64) { c.setRawU64(k, uint64(v)) }

func (c *Context) readU64(k int) uint64    { return c.rawU64(k) }
func (c *Context) writeU64(k int, v uint64) { c.setRawU64(k, v) }

func (c *Context) readF64(k int) float64 {
	return math.Float64frombits(c.rawU64(k))
}

func (c *Context) writeF64(k int, v float64) {
	c.setRawU64(k, math.Float64bits(v))
}

func (c *Context) rawU32(viewIx int) uint32 {
	return binary.LittleEndian.Uint32(c.stack[viewIx*4:])
}

func (c *Context) setRawU32(viewIx int, v uint32) {
	binary.LittleEndian.PutUint32(c.stack[viewIx*4:], v)
}

func (c *Context) readI32(k int) int32 {
	return int32(c.rawU32(viewIndex(bytecode.I32, k)))
}

func (c *Context) writeI32(k int, v int32) {
	c.setRawU32(viewIndex(bytecode.I32, k), uint32(v))
}

func (c *Context) readU32(k int) uint32 {
	return c.rawU32(viewIndex(bytecode.U32, k))
}

func (c *Context) writeU32(k int, v uint32) {
	c.setRawU32(viewIndex(bytecode.U32, k), v)
}

func (c *Context) readF32(k int) float32 {
	return math.Float32frombits(c.rawU32(viewIndex(bytecode.F32, k)))
}

func (c *Context) writeF32(k int, v float32) {
	c.setRawU32(viewIndex(bytecode.F32, k), math.Float32bits(v))
}

package vm

import (
	"fmt"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

// applyArithmetic performs op on cells l and r (read,read,compute)
// using the view selected by t, and writes the result back into l.
// Division by zero is not guarded here: an integer zero divisor
// panics and a float zero divisor follows IEEE-754 (±Inf or NaN) —
// both are a documented precondition violation on the caller, not a
// condition the VM detects.
func (c *Context) applyArithmetic(op bytecode.Opcode, t bytecode.TypeTag, l, r int) error {
	switch t {
	case bytecode.I64:
		lv, rv := c.readI64(l), c.readI64(r)
		c.writeI64(l, intOp(op, lv, rv))
	case bytecode.U64:
		lv, rv := c.readU64(l), c.readU64(r)
		c.writeU64(l, uintOp(op, lv, rv))
	case bytecode.I32:
		lv, rv := c.readI32(l), c.readI32(r)
		c.writeI32(l, int32(intOp(op, int64(lv), int64(rv))))
	case bytecode.U32:
		lv, rv := c.readU32(l), c.readU32(r)
		c.writeU32(l, uint32(uintOp(op, uint64(lv), uint64(rv))))
	case bytecode.F64:
		lv, rv := c.readF64(l), c.readF64(r)
		c.writeF64(l, floatOp(op, lv, rv))
	case bytecode.F32:
		lv, rv := c.readF32(l), c.readF32(r)
		c.writeF32(l, float32(floatOp(op, float64(lv), float64(rv))))
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedType, op, t)
	}
	return nil
}

func intOp(op bytecode.Opcode, l, r int64) int64 {
	switch op {
	case bytecode.OpAdd:
		return l + r
	case bytecode.OpSub:
		return l - r
	case bytecode.OpMul:
		return l * r
	case bytecode.OpDiv:
		return l / r
	default:
		panic(fmt.Sprintf("vm: %s is not an arithmetic opcode", op))
	}
}

func uintOp(op bytecode.Opcode, l, r uint64) uint64 {
	switch op {
	case bytecode.OpAdd:
		return l + r
	case bytecode.OpSub:
		return l - r
	case bytecode.OpMul:
		return l * r
	case bytecode.OpDiv:
		return l / r
	default:
		panic(fmt.Sprintf("vm: %s is not an arithmetic opcode", op))
	}
}

func floatOp(op bytecode.Opcode, l, r float64) float64 {
	switch op {
	case bytecode.OpAdd:
		return l + r
	case bytecode.OpSub:
		return l - r
	case bytecode.OpMul:
		return l * r
	case bytecode.OpDiv:
		return l / r
	default:
		panic(fmt.Sprintf("vm: %s is not an arithmetic opcode", op))
	}
}

// printCell renders the cell at k, viewed as t, as text. Returns
// ErrUnsupportedType for any tag that Print does not support.
func (c *Context) printCell(t bytecode.TypeTag, k int) (string, error) {
	switch t {
	case bytecode.I64:
		return fmt.Sprintf("%d", c.readI64(k)), nil
	case bytecode.U64:
		return fmt.Sprintf("%d", c.readU64(k)), nil
	case bytecode.I32:
		return fmt.Sprintf("%d", c.readI32(k)), nil
	case bytecode.U32:
		return fmt.Sprintf("%d", c.readU32(k)), nil
	case bytecode.F64:
		return fmt.Sprintf("%v", c.readF64(k)), nil
	case bytecode.F32:
		return fmt.Sprintf("%v", c.readF32(k)), nil
	default:
		return "", fmt.Errorf("%w: print %s", ErrUnsupportedType, t)
	}
}

// writeConstant pushes constant's value into cell k using the typed
// view its Kind selects. Str constants are not valid Cst operands in
// this VM.
func (c *Context) writeConstant(constant bytecode.Constant, k int) error {
	switch constant.Kind {
	case bytecode.KindI32:
		c.writeI32(k, constant.I32)
	case bytecode.KindI64:
		c.writeI64(k, constant.I64)
	case bytecode.KindU32:
		c.writeU32(k, constant.U32)
	case bytecode.KindU64:
		c.writeU64(k, constant.U64)
	case bytecode.KindF32:
		c.writeF32(k, constant.F32)
	case bytecode.KindF64:
		c.writeF64(k, constant.F64)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedConstant, constant)
	}
	return nil
}

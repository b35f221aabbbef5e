package bytecode

// Sizes is the per-function record established at emission time and
// trusted (not re-derived) at load time.
type Sizes struct {
	ReturnCount   uint8
	ArgumentCount uint8
	LocalsCount   uint16
	MaxOperands   uint16
}

// SizesEncodedLen is the fixed on-disk size of a Sizes record: u8 + u8 +
// u16 + u16.
const SizesEncodedLen = 6

// CalculateSizes walks instrs and derives (max_operands, locals_count,
// return_count) by the same rules the writer applies incrementally
// during emission. It never consults the instruction's declared arity
// — it is the source of truth the writer's incremental bookkeeping is
// checked against.
func CalculateSizes(instrs []Instruction) (Sizes, error) {
	var (
		s int64  // running operand count
		m int64  // running maximum
		v int64 = -1 // highest variable index seen
		r int64  // highest return count seen
	)

	for _, instr := range instrs {
		pops, pushes := stackEffect(instr)

		if isPopThenPush(instr.Op) {
			if s-pops < 0 {
				return Sizes{}, ErrOperandUnderflow
			}
		}

		s -= pops
		if s < 0 {
			return Sizes{}, ErrOperandUnderflow
		}
		s += pushes

		switch instr.Op {
		case OpLoad, OpStore:
			if int64(instr.Index) > v {
				v = int64(instr.Index)
			}
		case OpRet:
			if int64(instr.Count) > r {
				r = int64(instr.Count)
			}
		}

		if s > m {
			m = s
		}
	}

	return Sizes{
		ReturnCount: uint8(r),
		LocalsCount: uint16(v + 1),
		MaxOperands: uint16(m),
	}, nil
}

// stackEffect returns the net (pops, pushes) for instr per the
// instruction-set table. Ret's pop count is its Count operand.
func stackEffect(instr Instruction) (pops, pushes int64) {
	switch instr.Op {
	case OpNop:
		return 0, 0
	case OpPop:
		return 1, 0
	case OpDup:
		return 1, 2
	case OpCst:
		return 0, 1
	case OpLoad:
		return 0, 1
	case OpStore:
		return 1, 0
	case OpAdd, OpSub, OpMul, OpDiv:
		return 2, 1
	case OpRet:
		return int64(instr.Count), 0
	case OpPrint:
		return 1, 0
	default:
		return 0, 0
	}
}

// isPopThenPush reports whether op first pops then pushes within a
// single step, requiring the intermediate (post-pop, pre-push) depth
// to stay non-negative — not just the net effect.
func isPopThenPush(op Opcode) bool {
	return op == OpAdd || op == OpSub || op == OpMul || op == OpDiv || op == OpDup
}

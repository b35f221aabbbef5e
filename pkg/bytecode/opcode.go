package bytecode

import "fmt"

// Opcode is the one-byte operation selector that begins every encoded
// instruction.
type Opcode byte

// Fixed byte assignment per the binary format.
const (
	OpNop   Opcode = 0x01
	OpPop   Opcode = 0x02
	OpDup   Opcode = 0x03
	OpCst   Opcode = 0x04
	OpLoad  Opcode = 0x05
	OpStore Opcode = 0x06
	OpAdd   Opcode = 0x07
	OpSub   Opcode = 0x08
	OpMul   Opcode = 0x09
	OpDiv   Opcode = 0x0A
	OpRet   Opcode = 0x0B
	OpPrint Opcode = 0x0C
)

var opcodeNames = map[Opcode]string{
	OpNop:   "nop",
	OpPop:   "pop",
	OpDup:   "dup",
	OpCst:   "cst",
	OpLoad:  "load",
	OpStore: "store",
	OpAdd:   "add",
	OpSub:   "sub",
	OpMul:   "mul",
	OpDiv:   "div",
	OpRet:   "ret",
	OpPrint: "print",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(0x%x)", byte(op))
}

// Valid reports whether op is one of the twelve defined opcodes.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// HasTypeOperand reports whether the instruction for op is followed on
// disk by a single TypeTag byte.
func (op Opcode) HasTypeOperand() bool {
	return op == OpAdd || op == OpSub || op == OpMul || op == OpDiv || op == OpPrint
}

// HasIndexOperand reports whether the instruction for op is followed
// on disk by a big-endian u16 index (constant-pool or local index).
func (op Opcode) HasIndexOperand() bool {
	return op == OpCst || op == OpLoad || op == OpStore
}

// HasCountOperand reports whether the instruction for op is followed
// on disk by a single count byte.
func (op Opcode) HasCountOperand() bool {
	return op == OpRet
}

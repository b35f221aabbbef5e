package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Instruction is a single decoded operation. Exactly one of the
// payload fields is meaningful, selected by Op. Every instruction has
// a fixed, known encoded length determined entirely by Op.
type Instruction struct {
	Op Opcode

	// Type is populated for Add/Sub/Mul/Div/Print.
	Type TypeTag

	// Index is populated for Cst/Load/Store.
	Index uint16

	// Count is populated for Ret.
	Count uint8
}

func InstrNop() Instruction  { return Instruction{Op: OpNop} }
func InstrPop() Instruction  { return Instruction{Op: OpPop} }
func InstrDup() Instruction  { return Instruction{Op: OpDup} }
func InstrCst(ix uint16) Instruction {
	return Instruction{Op: OpCst, Index: ix}
}
func InstrLoad(v uint16) Instruction {
	return Instruction{Op: OpLoad, Index: v}
}
func InstrStore(v uint16) Instruction {
	return Instruction{Op: OpStore, Index: v}
}
func InstrAdd(t TypeTag) Instruction { return Instruction{Op: OpAdd, Type: t} }
func InstrSub(t TypeTag) Instruction { return Instruction{Op: OpSub, Type: t} }
func InstrMul(t TypeTag) Instruction { return Instruction{Op: OpMul, Type: t} }
func InstrDiv(t TypeTag) Instruction { return Instruction{Op: OpDiv, Type: t} }
func InstrRet(count uint8) Instruction {
	return Instruction{Op: OpRet, Count: count}
}
func InstrPrint(t TypeTag) Instruction { return Instruction{Op: OpPrint, Type: t} }

// EncodedLen returns the number of bytes this instruction occupies on
// disk: one opcode byte plus whatever operand the opcode carries.
func (i Instruction) EncodedLen() int {
	switch {
	case i.Op.HasTypeOperand():
		return 2
	case i.Op.HasIndexOperand():
		return 3
	case i.Op.HasCountOperand():
		return 2
	default:
		return 1
	}
}

func (i Instruction) String() string {
	switch {
	case i.Op.HasTypeOperand():
		return fmt.Sprintf("%s %s", i.Op, i.Type)
	case i.Op.HasIndexOperand():
		return fmt.Sprintf("%s %d", i.Op, i.Index)
	case i.Op.HasCountOperand():
		return fmt.Sprintf("%s %d", i.Op, i.Count)
	default:
		return i.Op.String()
	}
}

// DecodeInstructions reads a `u32` instruction count followed by that
// many encoded instructions, as laid out in a `.func` body.
func DecodeInstructions(r io.Reader) ([]Instruction, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading instruction count: %v", ErrTruncatedInput, err)
	}

	instrs := make([]Instruction, count)
	for i := range instrs {
		instr, err := decodeInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		instrs[i] = instr
	}
	return instrs, nil
}

// EncodeInstructions writes the `u32` count prefix and each
// instruction in turn.
func EncodeInstructions(w io.Writer, instrs []Instruction) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(instrs))); err != nil {
		return fmt.Errorf("writing instruction count: %w", err)
	}
	for i, instr := range instrs {
		if err := EncodeInstruction(w, instr); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

// EncodeInstruction writes a single instruction with no count prefix
// — the building block EncodeInstructions uses per element, and that
// an incremental writer (pkg/scribe) can call directly as it emits
// one instruction at a time.
func EncodeInstruction(w io.Writer, instr Instruction) error {
	return encodeInstruction(w, instr)
}

func decodeInstruction(r io.Reader) (Instruction, error) {
	var opByte byte
	if err := binary.Read(r, binary.BigEndian, &opByte); err != nil {
		return Instruction{}, fmt.Errorf("%w: reading opcode: %v", ErrTruncatedInput, err)
	}

	op := Opcode(opByte)
	if !op.Valid() {
		return Instruction{}, fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, opByte)
	}

	instr := Instruction{Op: op}
	switch {
	case op.HasTypeOperand():
		var tagByte byte
		if err := binary.Read(r, binary.BigEndian, &tagByte); err != nil {
			return Instruction{}, fmt.Errorf("%w: reading type tag: %v", ErrTruncatedInput, err)
		}
		t := TypeTag(tagByte)
		if !t.Valid() {
			return Instruction{}, fmt.Errorf("%w: 0x%02x", ErrInvalidType, tagByte)
		}
		instr.Type = t
	case op.HasIndexOperand():
		var ix uint16
		if err := binary.Read(r, binary.BigEndian, &ix); err != nil {
			return Instruction{}, fmt.Errorf("%w: reading index: %v", ErrTruncatedInput, err)
		}
		instr.Index = ix
	case op.HasCountOperand():
		var count uint8
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return Instruction{}, fmt.Errorf("%w: reading count: %v", ErrTruncatedInput, err)
		}
		instr.Count = count
	}
	return instr, nil
}

func encodeInstruction(w io.Writer, instr Instruction) error {
	if !instr.Op.Valid() {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, byte(instr.Op))
	}
	if err := binary.Write(w, binary.BigEndian, byte(instr.Op)); err != nil {
		return err
	}
	switch {
	case instr.Op.HasTypeOperand():
		if !instr.Type.Valid() {
			return fmt.Errorf("%w: 0x%02x", ErrInvalidType, byte(instr.Type))
		}
		return binary.Write(w, binary.BigEndian, byte(instr.Type))
	case instr.Op.HasIndexOperand():
		return binary.Write(w, binary.BigEndian, instr.Index)
	case instr.Op.HasCountOperand():
		return binary.Write(w, binary.BigEndian, instr.Count)
	default:
		return nil
	}
}

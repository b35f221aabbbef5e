package bytecode

import (
	"bytes"
	"errors"
	"testing"
)

func TestConstantTableRoundTrip(t *testing.T) {
	original := NewConstantTable([]Constant{
		ConstantI32(-7),
		ConstantI64(-25),
		ConstantU32(42),
		ConstantU64(20),
		ConstantF32(1.5),
		ConstantF64(-3.25),
		ConstantStr("hello"),
	})

	var buf bytes.Buffer
	if err := EncodeConstantTable(&buf, original); err != nil {
		t.Fatalf("EncodeConstantTable failed: %v", err)
	}

	decoded, err := DecodeConstantTable(&buf)
	if err != nil {
		t.Fatalf("DecodeConstantTable failed: %v", err)
	}

	if decoded.Len() != original.Len() {
		t.Fatalf("entry count mismatch: got %d, want %d", decoded.Len(), original.Len())
	}
	for i := 0; i < original.Len(); i++ {
		if decoded.At(uint16(i)) != original.At(uint16(i)) {
			t.Errorf("entry %d mismatch: got %v, want %v", i, decoded.At(uint16(i)), original.At(uint16(i)))
		}
	}
}

func TestDecodeConstantTableMalformedTag(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x01, 0xFF})
	if _, err := DecodeConstantTable(buf); !errors.Is(err, ErrMalformedConstant) {
		t.Fatalf("got %v, want ErrMalformedConstant", err)
	}
}

func TestDecodeConstantTableTruncated(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x01, byte(constTagI64)})
	if _, err := DecodeConstantTable(buf); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("got %v, want ErrTruncatedInput", err)
	}
}

func TestInstructionRoundTrip(t *testing.T) {
	original := []Instruction{
		InstrLoad(0),
		InstrCst(0),
		InstrAdd(I64),
		InstrCst(1),
		InstrMul(I64),
		InstrDup(),
		InstrPrint(I64),
		InstrRet(1),
	}

	var buf bytes.Buffer
	if err := EncodeInstructions(&buf, original); err != nil {
		t.Fatalf("EncodeInstructions failed: %v", err)
	}

	decoded, err := DecodeInstructions(&buf)
	if err != nil {
		t.Fatalf("DecodeInstructions failed: %v", err)
	}

	if len(decoded) != len(original) {
		t.Fatalf("instruction count mismatch: got %d, want %d", len(decoded), len(original))
	}
	for i, instr := range decoded {
		if instr != original[i] {
			t.Errorf("instruction %d mismatch: got %v, want %v", i, instr, original[i])
		}
	}
}

func TestDecodeInstructionsInvalidOpcode(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00, 0x00, 0x01, 0xEE})
	if _, err := DecodeInstructions(buf); !errors.Is(err, ErrInvalidOpcode) {
		t.Fatalf("got %v, want ErrInvalidOpcode", err)
	}
}

func TestDecodeInstructionsInvalidType(t *testing.T) {
	// OpAdd followed by an out-of-range type tag.
	buf := bytes.NewBuffer([]byte{0x00, 0x00, 0x00, 0x01, byte(OpAdd), 0xEE})
	if _, err := DecodeInstructions(buf); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("got %v, want ErrInvalidType", err)
	}
}

// TestCalculateSizesAddImmediate mirrors scenario 2: Load 0; Cst 0;
// Add U64; Ret 1.
func TestCalculateSizesAddImmediate(t *testing.T) {
	instrs := []Instruction{
		InstrLoad(0),
		InstrCst(0),
		InstrAdd(U64),
		InstrRet(1),
	}

	sizes, err := CalculateSizes(instrs)
	if err != nil {
		t.Fatalf("CalculateSizes failed: %v", err)
	}
	if sizes.MaxOperands != 2 {
		t.Errorf("MaxOperands = %d, want 2", sizes.MaxOperands)
	}
	if sizes.LocalsCount != 1 {
		t.Errorf("LocalsCount = %d, want 1", sizes.LocalsCount)
	}
	if sizes.ReturnCount != 1 {
		t.Errorf("ReturnCount = %d, want 1", sizes.ReturnCount)
	}
}

// TestCalculateSizesDupChain mirrors scenario 4: Load 0, then 20x Dup,
// then Ret 1 → max_operands=21, locals_count=1, return_count=1.
func TestCalculateSizesDupChain(t *testing.T) {
	instrs := []Instruction{InstrLoad(0)}
	for i := 0; i < 20; i++ {
		instrs = append(instrs, InstrDup())
	}
	instrs = append(instrs, InstrRet(1))

	sizes, err := CalculateSizes(instrs)
	if err != nil {
		t.Fatalf("CalculateSizes failed: %v", err)
	}
	if sizes.MaxOperands != 21 {
		t.Errorf("MaxOperands = %d, want 21", sizes.MaxOperands)
	}
	if sizes.LocalsCount != 1 {
		t.Errorf("LocalsCount = %d, want 1", sizes.LocalsCount)
	}
	if sizes.ReturnCount != 1 {
		t.Errorf("ReturnCount = %d, want 1", sizes.ReturnCount)
	}
}

// TestCalculateSizesUnderflow mirrors scenario 5: Cst 0; Add I64 alone
// (no prior push) must fail with OperandUnderflow.
func TestCalculateSizesUnderflow(t *testing.T) {
	instrs := []Instruction{
		InstrCst(0),
		InstrAdd(I64),
	}

	_, err := CalculateSizes(instrs)
	if !errors.Is(err, ErrOperandUnderflow) {
		t.Fatalf("got %v, want ErrOperandUnderflow", err)
	}
}

func TestCalculateSizesEmpty(t *testing.T) {
	sizes, err := CalculateSizes(nil)
	if err != nil {
		t.Fatalf("CalculateSizes failed: %v", err)
	}
	if sizes.MaxOperands != 0 || sizes.LocalsCount != 0 || sizes.ReturnCount != 0 {
		t.Errorf("got %+v, want all zero", sizes)
	}
}

func TestTypeTagValid(t *testing.T) {
	if !I64.Valid() {
		t.Error("I64 should be valid")
	}
	if TypeTag(0xFF).Valid() {
		t.Error("0xFF should not be a valid type tag")
	}
}

func TestOpcodeOperandClassification(t *testing.T) {
	cases := []struct {
		op           Opcode
		hasType      bool
		hasIndex     bool
		hasCount     bool
		encodedLen   int
	}{
		{OpNop, false, false, false, 1},
		{OpCst, false, true, false, 3},
		{OpAdd, true, false, false, 2},
		{OpRet, false, false, true, 2},
	}
	for _, c := range cases {
		if got := c.op.HasTypeOperand(); got != c.hasType {
			t.Errorf("%s.HasTypeOperand() = %v, want %v", c.op, got, c.hasType)
		}
		if got := c.op.HasIndexOperand(); got != c.hasIndex {
			t.Errorf("%s.HasIndexOperand() = %v, want %v", c.op, got, c.hasIndex)
		}
		if got := c.op.HasCountOperand(); got != c.hasCount {
			t.Errorf("%s.HasCountOperand() = %v, want %v", c.op, got, c.hasCount)
		}
		instr := Instruction{Op: c.op}
		if got := instr.EncodedLen(); got != c.encodedLen {
			t.Errorf("%s.EncodedLen() = %d, want %d", c.op, got, c.encodedLen)
		}
	}
}

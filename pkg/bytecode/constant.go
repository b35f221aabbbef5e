package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// constantTag is the one-byte discriminant written before every
// constant-pool entry on disk.
type constantTag byte

// Fixed byte assignment per the binary format. The original source
// this design is distilled from assigned these inconsistently across
// its own iterations (see DESIGN.md) — these values are final.
const (
	constTagI32 constantTag = 0x01
	constTagI64 constantTag = 0x02
	constTagU32 constantTag = 0x03
	constTagU64 constantTag = 0x04
	constTagF32 constantTag = 0x05
	constTagF64 constantTag = 0x06
	constTagStr constantTag = 0x07
)

// ConstantKind identifies which field of Constant is populated.
type ConstantKind byte

const (
	KindI32 ConstantKind = ConstantKind(constTagI32)
	KindI64 ConstantKind = ConstantKind(constTagI64)
	KindU32 ConstantKind = ConstantKind(constTagU32)
	KindU64 ConstantKind = ConstantKind(constTagU64)
	KindF32 ConstantKind = ConstantKind(constTagF32)
	KindF64 ConstantKind = ConstantKind(constTagF64)
	KindStr ConstantKind = ConstantKind(constTagStr)
)

// Constant is a tagged immutable value addressed by a 16-bit index
// into a ConstantTable. Only one of the fields is meaningful,
// selected by Kind.
type Constant struct {
	Kind ConstantKind

	I32 int32
	I64 int64
	U32 uint32
	U64 uint64
	F32 float32
	F64 float64
	Str string
}

func ConstantI32(v int32) Constant   { return Constant{Kind: KindI32, I32: v} }
func ConstantI64(v int64) Constant   { return Constant{Kind: KindI64, I64: v} }
func ConstantU32(v uint32) Constant  { return Constant{Kind: KindU32, U32: v} }
func ConstantU64(v uint64) Constant  { return Constant{Kind: KindU64, U64: v} }
func ConstantF32(v float32) Constant { return Constant{Kind: KindF32, F32: v} }
func ConstantF64(v float64) Constant { return Constant{Kind: KindF64, F64: v} }
func ConstantStr(v string) Constant  { return Constant{Kind: KindStr, Str: v} }

func (c Constant) String() string {
	switch c.Kind {
	case KindI32:
		return fmt.Sprintf("i32: %d", c.I32)
	case KindI64:
		return fmt.Sprintf("i64: %d", c.I64)
	case KindU32:
		return fmt.Sprintf("u32: %d", c.U32)
	case KindU64:
		return fmt.Sprintf("u64: %d", c.U64)
	case KindF32:
		return fmt.Sprintf("f32: %v", c.F32)
	case KindF64:
		return fmt.Sprintf("f64: %v", c.F64)
	case KindStr:
		return fmt.Sprintf("str: %q", c.Str)
	default:
		return "constant(?)"
	}
}

// ConstantTable is an ordered, immutable sequence of constants
// addressed by 16-bit index. It is shared by reference across any
// number of functions that were compiled against the same pool.
type ConstantTable struct {
	entries []Constant
}

// NewConstantTable builds a table from already-decoded constants.
func NewConstantTable(entries []Constant) *ConstantTable {
	return &ConstantTable{entries: append([]Constant(nil), entries...)}
}

// Len returns the number of entries in the table.
func (t *ConstantTable) Len() int { return len(t.entries) }

// At returns the constant at ix. The caller is trusted to have
// validated ix against Len (the VM's hot path does not re-check it on
// every Cst instruction, matching spec.md §4.4's "reader trusts the
// stored sizes" stance on bounds that were already checked once).
func (t *ConstantTable) At(ix uint16) Constant { return t.entries[ix] }

// DecodeConstantTable reads a `.cst`-shaped stream: a u16 count
// followed by that many tagged constants.
func DecodeConstantTable(r io.Reader) (*ConstantTable, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading constant table count: %v", ErrTruncatedInput, err)
	}

	entries := make([]Constant, count)
	for i := range entries {
		c, err := decodeConstant(r)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		entries[i] = c
	}
	return &ConstantTable{entries: entries}, nil
}

// EncodeConstantTable writes t in the `.cst` layout.
func EncodeConstantTable(w io.Writer, t *ConstantTable) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(t.entries))); err != nil {
		return fmt.Errorf("writing constant table count: %w", err)
	}
	for i, c := range t.entries {
		if err := encodeConstant(w, c); err != nil {
			return fmt.Errorf("constant %d: %w", i, err)
		}
	}
	return nil
}

func decodeConstant(r io.Reader) (Constant, error) {
	var tagByte byte
	if err := binary.Read(r, binary.BigEndian, &tagByte); err != nil {
		return Constant{}, fmt.Errorf("%w: reading tag: %v", ErrTruncatedInput, err)
	}

	switch constantTag(tagByte) {
	case constTagI32:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return Constant{}, fmt.Errorf("%w: reading i32: %v", ErrTruncatedInput, err)
		}
		return ConstantI32(v), nil
	case constTagI64:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return Constant{}, fmt.Errorf("%w: reading i64: %v", ErrTruncatedInput, err)
		}
		return ConstantI64(v), nil
	case constTagU32:
		var v uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return Constant{}, fmt.Errorf("%w: reading u32: %v", ErrTruncatedInput, err)
		}
		return ConstantU32(v), nil
	case constTagU64:
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return Constant{}, fmt.Errorf("%w: reading u64: %v", ErrTruncatedInput, err)
		}
		return ConstantU64(v), nil
	case constTagF32:
		var bits uint32
		if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
			return Constant{}, fmt.Errorf("%w: reading f32: %v", ErrTruncatedInput, err)
		}
		return ConstantF32(math.Float32frombits(bits)), nil
	case constTagF64:
		var bits uint64
		if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
			return Constant{}, fmt.Errorf("%w: reading f64: %v", ErrTruncatedInput, err)
		}
		return ConstantF64(math.Float64frombits(bits)), nil
	case constTagStr:
		s, err := ReadString(r)
		if err != nil {
			return Constant{}, fmt.Errorf("reading str: %w", err)
		}
		return ConstantStr(s), nil
	default:
		return Constant{}, fmt.Errorf("%w: tag 0x%02x", ErrMalformedConstant, tagByte)
	}
}

func encodeConstant(w io.Writer, c Constant) error {
	switch c.Kind {
	case KindI32:
		if err := binary.Write(w, binary.BigEndian, byte(constTagI32)); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, c.I32)
	case KindI64:
		if err := binary.Write(w, binary.BigEndian, byte(constTagI64)); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, c.I64)
	case KindU32:
		if err := binary.Write(w, binary.BigEndian, byte(constTagU32)); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, c.U32)
	case KindU64:
		if err := binary.Write(w, binary.BigEndian, byte(constTagU64)); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, c.U64)
	case KindF32:
		if err := binary.Write(w, binary.BigEndian, byte(constTagF32)); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, math.Float32bits(c.F32))
	case KindF64:
		if err := binary.Write(w, binary.BigEndian, byte(constTagF64)); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, math.Float64bits(c.F64))
	case KindStr:
		if err := binary.Write(w, binary.BigEndian, byte(constTagStr)); err != nil {
			return err
		}
		return WriteString(w, c.Str)
	default:
		return fmt.Errorf("encoding constant: unknown kind %d", c.Kind)
	}
}

// ReadString reads the u16-length-prefixed UTF-8 strings used
// throughout the binary format (names, constant-table keys, string
// constants).
func ReadString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", fmt.Errorf("%w: reading string length: %v", ErrTruncatedInput, err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: reading string bytes: %v", ErrTruncatedInput, err)
	}
	return string(buf), nil
}

// WriteString writes s as a u16 length prefix followed by its UTF-8
// bytes.
func WriteString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return fmt.Errorf("writing string length: %w", err)
	}
	_, err := io.WriteString(w, s)
	return err
}

// StringDiskSize returns the number of bytes s occupies once encoded
// (2-byte length prefix + payload) — used to compute the instruction
// body offset in a `.func` file header without re-reading the file.
func StringDiskSize(s string) int { return 2 + len(s) }

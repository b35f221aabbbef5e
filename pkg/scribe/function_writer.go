// Package scribe emits the on-disk `.func`/`.cst` binary format. The
// function writer tracks a function's Sizes incrementally as
// instructions are emitted, using the same rules as
// bytecode.CalculateSizes, and rejects at emission time any sequence
// that would drive the operand stack negative — instead of waiting
// for a load-time analyzer to catch it.
package scribe

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

// FunctionWriter emits a single `.func` file's header and body to w,
// which must support Seek so Finish can patch the header once the
// final sizes and instruction count are known.
type FunctionWriter struct {
	w io.WriteSeeker

	sizesOffset      int64
	instrCountOffset int64
	instructionCount uint32

	sizes         bytecode.Sizes
	currentOpSize uint16

	log zerolog.Logger
}

// NewFunctionWriter writes name, a zeroed Sizes placeholder, and
// constantTableName to w, then reserves the instruction-count prefix.
// argumentCount seeds both Sizes.ArgumentCount and Sizes.LocalsCount,
// since a function's arguments always occupy its first
// argument_count locals regardless of whether the body ever issues a
// Load/Store against them.
func NewFunctionWriter(w io.WriteSeeker, name string, constantTableName string, argumentCount uint8) (*FunctionWriter, error) {
	if err := bytecode.WriteString(w, name); err != nil {
		return nil, fmt.Errorf("scribe: writing name: %w", err)
	}

	sizesOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("scribe: locating sizes header: %w", err)
	}
	if err := writeSizes(w, bytecode.Sizes{}); err != nil {
		return nil, fmt.Errorf("scribe: reserving sizes header: %w", err)
	}

	if err := bytecode.WriteString(w, constantTableName); err != nil {
		return nil, fmt.Errorf("scribe: writing constant table name: %w", err)
	}

	instrCountOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("scribe: locating instruction count header: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(0)); err != nil {
		return nil, fmt.Errorf("scribe: reserving instruction count: %w", err)
	}

	return &FunctionWriter{
		w:                w,
		sizesOffset:      sizesOffset,
		instrCountOffset: instrCountOffset,
		sizes: bytecode.Sizes{
			ArgumentCount: argumentCount,
			LocalsCount:   uint16(argumentCount),
		},
		log: log.With().Str("component", "scribe").Logger(),
	}, nil
}

// Sizes returns the sizes accumulated so far.
func (fw *FunctionWriter) Sizes() bytecode.Sizes { return fw.sizes }

// WriteNop emits Nop, which has no stack effect.
func (fw *FunctionWriter) WriteNop() error { return fw.writeOperation(bytecode.InstrNop()) }

// WritePop emits Pop, popping one operand.
func (fw *FunctionWriter) WritePop() error {
	if err := fw.popOperands(1); err != nil {
		return err
	}
	return fw.emit(bytecode.InstrPop())
}

// WriteDup emits Dup, which requires at least one operand and pushes
// a second copy of it.
func (fw *FunctionWriter) WriteDup() error {
	if err := fw.popOperands(1); err != nil {
		return err
	}
	fw.pushOperands(2)
	return fw.emit(bytecode.InstrDup())
}

// WriteCst emits Cst(ix), pushing one operand.
func (fw *FunctionWriter) WriteCst(ix uint16) error {
	fw.pushOperands(1)
	return fw.emit(bytecode.InstrCst(ix))
}

// WriteLoad emits Load(v), pushing one operand and raising
// locals_count to cover v.
func (fw *FunctionWriter) WriteLoad(v uint16) error {
	fw.pushOperands(1)
	fw.usedVar(v)
	return fw.emit(bytecode.InstrLoad(v))
}

// WriteStore emits Store(v), popping one operand and raising
// locals_count to cover v.
func (fw *FunctionWriter) WriteStore(v uint16) error {
	if err := fw.popOperands(1); err != nil {
		return err
	}
	fw.usedVar(v)
	return fw.emit(bytecode.InstrStore(v))
}

// writeArithmetic emits Add/Sub/Mul/Div(t): pops 2 operands, then
// pushes 1, matching the two-step pop-then-push check §4.3 requires.
func (fw *FunctionWriter) writeArithmetic(instr bytecode.Instruction) error {
	if err := fw.popOperands(2); err != nil {
		return err
	}
	fw.pushOperands(1)
	return fw.emit(instr)
}

func (fw *FunctionWriter) WriteAdd(t bytecode.TypeTag) error { return fw.writeArithmetic(bytecode.InstrAdd(t)) }
func (fw *FunctionWriter) WriteSub(t bytecode.TypeTag) error { return fw.writeArithmetic(bytecode.InstrSub(t)) }
func (fw *FunctionWriter) WriteMul(t bytecode.TypeTag) error { return fw.writeArithmetic(bytecode.InstrMul(t)) }
func (fw *FunctionWriter) WriteDiv(t bytecode.TypeTag) error { return fw.writeArithmetic(bytecode.InstrDiv(t)) }

// WritePrint emits Print(t), popping one operand.
func (fw *FunctionWriter) WritePrint(t bytecode.TypeTag) error {
	if err := fw.popOperands(1); err != nil {
		return err
	}
	return fw.emit(bytecode.InstrPrint(t))
}

// WriteRet emits Ret(count), popping count operands and raising
// return_count to count.
func (fw *FunctionWriter) WriteRet(count uint8) error {
	if err := fw.popOperands(uint16(count)); err != nil {
		return err
	}
	if fw.sizes.ReturnCount < count {
		fw.sizes.ReturnCount = count
	}
	return fw.emit(bytecode.InstrRet(count))
}

// writeOperation emits an instruction with no stack effect (only Nop
// today, kept separate from emit for symmetry with the Rust writer
// this is grounded on).
func (fw *FunctionWriter) writeOperation(instr bytecode.Instruction) error {
	return fw.emit(instr)
}

func (fw *FunctionWriter) emit(instr bytecode.Instruction) error {
	if err := bytecode.EncodeInstruction(fw.w, instr); err != nil {
		return fmt.Errorf("scribe: emitting %s: %w", instr, err)
	}
	fw.instructionCount++
	return nil
}

func (fw *FunctionWriter) usedVar(v uint16) {
	if v+1 > fw.sizes.LocalsCount {
		fw.sizes.LocalsCount = v + 1
	}
}

func (fw *FunctionWriter) pushOperands(amount uint16) {
	fw.currentOpSize += amount
	if fw.sizes.MaxOperands < fw.currentOpSize {
		fw.sizes.MaxOperands = fw.currentOpSize
	}
}

// popOperands rejects at emission time — before any bytes for the
// instruction reach disk — any pop that would take the operand stack
// negative.
func (fw *FunctionWriter) popOperands(amount uint16) error {
	if amount > fw.currentOpSize {
		return fmt.Errorf("%w: popping %d with only %d on the operand stack", ErrOperandUnderflow, amount, fw.currentOpSize)
	}
	fw.currentOpSize -= amount
	return nil
}

// Finish seeks back to the header and writes the accumulated sizes
// and instruction count, then restores the writer to end-of-file.
func (fw *FunctionWriter) Finish() error {
	end, err := fw.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("scribe: locating end of file: %w", err)
	}

	if _, err := fw.w.Seek(fw.sizesOffset, io.SeekStart); err != nil {
		return fmt.Errorf("scribe: seeking to sizes header: %w", err)
	}
	if err := writeSizes(fw.w, fw.sizes); err != nil {
		return fmt.Errorf("scribe: patching sizes: %w", err)
	}

	if _, err := fw.w.Seek(fw.instrCountOffset, io.SeekStart); err != nil {
		return fmt.Errorf("scribe: seeking to instruction count: %w", err)
	}
	if err := binary.Write(fw.w, binary.BigEndian, fw.instructionCount); err != nil {
		return fmt.Errorf("scribe: patching instruction count: %w", err)
	}

	if _, err := fw.w.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("scribe: restoring end-of-file position: %w", err)
	}

	fw.log.Debug().Uint32("instructions", fw.instructionCount).
		Uint16("max_operands", fw.sizes.MaxOperands).
		Uint16("locals_count", fw.sizes.LocalsCount).
		Uint8("return_count", fw.sizes.ReturnCount).
		Msg("finished function")
	return nil
}

func writeSizes(w io.Writer, s bytecode.Sizes) error {
	if err := binary.Write(w, binary.BigEndian, s.ReturnCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, s.ArgumentCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, s.LocalsCount); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, s.MaxOperands)
}

// Package vm implements the execution context: a fixed-size, 8-byte
// aligned raw stack and the straight-line loop that runs a function's
// bytecode against it. There is no branching instruction; every
// program is a linear sequence of instructions that falls through to
// the next.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
	"github.com/marcopennekamp/lorevm/pkg/function"
)

// Context owns a raw, 8-byte-aligned stack of capacity cells (8
// bytes each) and executes functions against it. A Context is not
// safe for concurrent use; it exclusively owns its stack for the
// duration of its life.
type Context struct {
	stack    []byte
	capacity int // in cells

	// Print writes its textual output here. Defaults to os.Stdout;
	// tests substitute a bytes.Buffer.
	Output io.Writer

	log zerolog.Logger
}

// NewContext allocates a context with room for capacity 8-byte cells.
func NewContext(capacity int) *Context {
	return &Context{
		stack:    make([]byte, capacity*8),
		capacity: capacity,
		Output:   os.Stdout,
		log:      log.With().Str("component", "vm").Logger(),
	}
}

// Run executes f with arguments, returning its declared return cells
// as raw 64-bit values (the VM treats every cell as an untyped bit
// pattern; interpreting it as a signed, unsigned, or float value is
// the caller's responsibility).
func (c *Context) Run(f *function.Function, arguments []uint64) ([]uint64, error) {
	if !f.Registered() {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, f.Name())
	}

	sizes := f.Sizes()
	if len(arguments) != int(sizes.ArgumentCount) {
		return nil, fmt.Errorf("%w: function %q wants %d arguments, got %d",
			ErrArityMismatch, f.Name(), sizes.ArgumentCount, len(arguments))
	}

	for i, arg := range arguments {
		c.setRawU64(int(sizes.ReturnCount)+i, arg)
	}

	if err := c.call(f, 0, 0); err != nil {
		return nil, err
	}

	returns := make([]uint64, sizes.ReturnCount)
	for i := range returns {
		returns[i] = c.rawU64(i)
	}
	return returns, nil
}

// call executes f's body with its frame's return slots starting at
// stackReturn and its locals/operands starting at stackBottom.
func (c *Context) call(f *function.Function, stackBottom, stackReturn int) error {
	body := f.Body()
	if !body.IsResident() {
		return fmt.Errorf("%w: %q", ErrBodyNotLoaded, f.Name())
	}

	sizes := f.Sizes()
	opTop := stackBottom + int(sizes.ReturnCount) + int(sizes.LocalsCount)
	if opTop+int(sizes.MaxOperands) > c.capacity {
		return fmt.Errorf("%w: function %q needs %d cells from %d, capacity is %d",
			ErrStackOverflow, f.Name(), sizes.MaxOperands, opTop, c.capacity)
	}

	locals := stackBottom + int(sizes.ReturnCount)
	table := f.ConstantTable()

	c.log.Debug().Str("function", f.Name()).Int("instructions", len(body.Instructions())).
		Int("op_top", opTop).Msg("call")

	for index, instr := range body.Instructions() {
		next, err := c.step(instr, table, locals, opTop, stackReturn)
		if err != nil {
			return fmt.Errorf("function %q, instruction %d (%s): %w", f.Name(), index, instr, err)
		}
		opTop = next
	}
	return nil
}

// step executes a single instruction and returns the updated op_top.
func (c *Context) step(instr bytecode.Instruction, table *bytecode.ConstantTable, locals, opTop, stackReturn int) (int, error) {
	switch instr.Op {
	case bytecode.OpNop:
		return opTop, nil

	case bytecode.OpPop:
		return opTop - 1, nil

	case bytecode.OpDup:
		c.setRawU64(opTop, c.rawU64(opTop-1))
		return opTop + 1, nil

	case bytecode.OpCst:
		constant := table.At(instr.Index)
		if err := c.writeConstant(constant, opTop); err != nil {
			return opTop, err
		}
		return opTop + 1, nil

	case bytecode.OpLoad:
		c.setRawU64(opTop, c.rawU64(locals+int(instr.Index)))
		return opTop + 1, nil

	case bytecode.OpStore:
		opTop--
		c.setRawU64(locals+int(instr.Index), c.rawU64(opTop))
		return opTop, nil

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv:
		l, r := opTop-2, opTop-1
		if err := c.applyArithmetic(instr.Op, instr.Type, l, r); err != nil {
			return opTop, err
		}
		return r, nil

	case bytecode.OpRet:
		count := int(instr.Count)
		for i := 0; i < count; i++ {
			c.setRawU64(stackReturn+i, c.rawU64(opTop-count+i))
		}
		// Net stack effect is count -> 0: Ret is not a terminator here,
		// so execution keeps going past it with the operand stack
		// popped by count, matching the stack-effect analyzer's rule.
		return opTop - count, nil

	case bytecode.OpPrint:
		text, err := c.printCell(instr.Type, opTop-1)
		if err != nil {
			return opTop, err
		}
		fmt.Fprintln(c.Output, text)
		return opTop - 1, nil

	default:
		return opTop, fmt.Errorf("vm: unexecutable opcode %s", instr.Op)
	}
}

package vm

import (
	"fmt"
	"io"

	"github.com/marcopennekamp/lorevm/pkg/function"
)

// Disassemble writes a human-readable listing of f's instruction
// stream to w: one instruction per line, numbered, with the function
// header above it. If f's body is still deferred, only the header and
// the body's file path and offset are written.
func Disassemble(w io.Writer, f *function.Function) error {
	sizes := f.Sizes()
	fmt.Fprintf(w, "function %s(args=%d) returns=%d locals=%d max_operands=%d\n",
		f.Name(), sizes.ArgumentCount, sizes.ReturnCount, sizes.LocalsCount, sizes.MaxOperands)

	if !f.Body().IsResident() {
		fmt.Fprintf(w, "  <body not loaded: %s @ %d>\n", f.Body().Path(), f.Body().Offset())
		return nil
	}

	for i, instr := range f.Body().Instructions() {
		fmt.Fprintf(w, "  %4d  %s\n", i, instr)
	}
	return nil
}

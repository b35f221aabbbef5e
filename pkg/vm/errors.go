package vm

import (
	"errors"

	"github.com/marcopennekamp/lorevm/pkg/function"
)

// Sentinel errors surfaced by Context.Run/call. Call sites wrap these
// with fmt.Errorf("...: %w", err) to add the function name or
// instruction index.
var (
	// ErrNotRegistered is returned when Run is called on a function
	// that has not yet been assigned an id by an environment.
	ErrNotRegistered = errors.New("vm: function not registered")

	// ErrArityMismatch is returned when the argument slice passed to
	// Run does not have exactly ArgumentCount elements.
	ErrArityMismatch = errors.New("vm: argument count mismatch")

	// ErrBodyNotLoaded is returned when call encounters a Deferred
	// body; loading is the environment's responsibility, not the
	// context's. It is the same sentinel as function.ErrBodyNotLoaded.
	ErrBodyNotLoaded = function.ErrBodyNotLoaded

	// ErrStackOverflow is returned when a frame's required stack
	// (return slots + locals + max operands) would exceed the
	// context's capacity.
	ErrStackOverflow = errors.New("vm: stack overflow")

	// ErrUnsupportedType is returned when Add/Sub/Mul/Div/Print is
	// applied to a type tag other than I32/I64/U32/U64/F32/F64.
	ErrUnsupportedType = errors.New("vm: unsupported type")

	// ErrUnsupportedConstant is returned when Cst addresses a Str
	// constant, which cannot be pushed onto the numeric operand stack.
	ErrUnsupportedConstant = errors.New("vm: unsupported constant kind")
)

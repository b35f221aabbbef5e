package bytecode

import "errors"

// Sentinel errors for the constant-pool and instruction codecs. Call
// sites wrap these with fmt.Errorf("...: %w", err) to add position or
// field context.
var (
	// ErrMalformedConstant is returned when a constant's tag byte is
	// not one of the seven defined values.
	ErrMalformedConstant = errors.New("bytecode: malformed constant")

	// ErrTruncatedInput is returned when a read ends before a fixed-
	// length field or a length-prefixed payload is fully consumed.
	ErrTruncatedInput = errors.New("bytecode: truncated input")

	// ErrInvalidOpcode is returned when an opcode byte does not match
	// any defined Opcode.
	ErrInvalidOpcode = errors.New("bytecode: invalid opcode")

	// ErrInvalidType is returned when a type-tag byte does not match
	// any defined TypeTag.
	ErrInvalidType = errors.New("bytecode: invalid type tag")

	// ErrOperandUnderflow is returned when a prefix of an instruction
	// sequence would drive the operand stack below zero.
	ErrOperandUnderflow = errors.New("bytecode: operand stack underflow")
)

package scribe

import "errors"

// ErrOperandUnderflow is raised at emission time, not at load time:
// the writer rejects any opcode that would drive the operand stack
// negative before a single byte of that instruction reaches disk.
var ErrOperandUnderflow = errors.New("scribe: operand stack underflow")

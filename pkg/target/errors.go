// Package target turns the text gdb prints for each inspection command into
// typed snapshots of the debugged program: breakpoints, call stack,
// disassembly, threads, source position, args/locals and registers.
//
// Every Parse function is pure: it takes the previous snapshot (nil is fine)
// and the raw output, and returns a new snapshot without touching the old one.
package target

import "errors"

// ErrMalformed is wrapped by every parse error caused by unexpected text.
var ErrMalformed = errors.New("malformed debugger output")

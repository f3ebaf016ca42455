package session

import (
	"log/slog"
	"strconv"
)

const (
	defaultBacktraceDepth = 64
	defaultRegisterGroup  = "all"
)

// Sender delivers one command to gdb.
type Sender interface {
	Send(msg string) error
}

// Commander issues the polling batch after every gdb prompt.
type Commander struct {
	out   Sender
	log   *slog.Logger
	batch []string
}

// NewCommander builds the batch once; depth <= 0 and an empty register group
// fall back to 64 and "all".
func NewCommander(out Sender, depth int, registers string, log *slog.Logger) *Commander {
	if depth <= 0 {
		depth = defaultBacktraceDepth
	}
	if registers == "" {
		registers = defaultRegisterGroup
	}
	return &Commander{
		out: out,
		log: log,
		// order matters: frame and inferiors invalidate later domains, and
		// breakpoints must land before source and disassembly mark them.
		batch: []string{
			"info threads",
			"info frame",
			"info inferiors",
			"info breakpoints",
			"info source",
			"info line *$pc",
			"info args",
			"info locals",
			"disassemble /r",
			"bt " + strconv.Itoa(depth),
			"info registers " + registers,
		},
	}
}

// Batch returns the commands sent on every poll, in order.
func (c *Commander) Batch() []string {
	return append([]string(nil), c.batch...)
}

// Poll sends the batch. Failures are logged and the remaining commands still
// go out; nothing is returned to the caller.
func (c *Commander) Poll() {
	for _, cmd := range c.batch {
		if err := c.out.Send(cmd); err != nil {
			c.log.Warn("send command", "cmd", cmd, "err", err)
		}
	}
}

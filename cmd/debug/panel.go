package debug

import (
	"fmt"
	"io"

	"github.com/hitzhangjie/gdbw/pkg/session"
)

// printPanel prints the panel of d, limited to its viewport when one is set.
func (s *DebugShell) printPanel(out io.Writer, d session.Domain) {
	sess := s.replay.Session()
	lines := sess.Panel(d)

	fmt.Fprintln(out, sess.Title(d))
	if len(lines) == 0 {
		fmt.Fprintln(out, "  <empty>")
		return
	}

	begin, end := 0, len(lines)
	if vp, ok := sess.Viewport(d); ok {
		begin = min(max(vp.Top, 0), len(lines))
		end = min(vp.Bottom(), len(lines))
	}
	for _, ln := range lines[begin:end] {
		fmt.Fprintln(out, ln)
	}
}

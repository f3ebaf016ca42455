package debug

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/session"
	"github.com/hitzhangjie/gdbw/pkg/symbol"
)

const listRange = 5

func newListCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "list [file:lineno]",
		Short:   "查看源码信息",
		Aliases: []string{"l", "source"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupSource,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sess := s.replay.Session()

			// parse location
			if len(args) != 0 {
				file, lineno, err := symbol.ParseLoc(args[0])
				if err != nil {
					return err
				}
				lines, err := sess.Loader().Load(file)
				if err != nil {
					return err
				}
				return listFileLines(out, sess, file, lines, lineno, listRange)
			}

			if _, ok := sess.Viewport(session.DomainSource); ok || sess.Source.Current < 0 {
				s.printPanel(out, session.DomainSource)
				return nil
			}
			src := sess.Source
			return listFileLines(out, sess, src.Path, src.Text, src.Current+1, listRange)
		},
	}
}

// list file lines around lineno, which is 1-based
func listFileLines(out io.Writer, sess *session.Session, file string, lines []string, lineno, rng int) error {
	begin, end := listWindow(len(lines), lineno-1, rng)
	if begin >= end {
		return fmt.Errorf("line %d out of range, %s has %d lines", lineno, file, len(lines))
	}

	for i := begin; i < end; i++ {
		// use 1-based counter
		idx := i + 1
		mark := "  "
		for _, loc := range symbol.Candidates(file, idx) {
			if sess.HasBreakpoint(loc) {
				mark = "X "
				break
			}
		}
		if idx == lineno {
			mark += "=>"
		} else {
			mark += "  "
		}
		fmt.Fprintf(out, "%s\t%d\t%s\n", mark, idx, lines[i])
	}
	return nil
}

// listWindow returns [begin, end) of the rng lines around the zero-based line.
func listWindow(count, line, rng int) (int, int) {
	begin := line - rng
	if begin < 0 {
		begin = 0
	}
	if begin > count {
		return count, count
	}

	end := line + rng + 1
	if end > count {
		end = count
	}
	return begin, end
}

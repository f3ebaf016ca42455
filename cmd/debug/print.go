package debug

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/session"
	"github.com/hitzhangjie/gdbw/pkg/target"
)

func newPrintCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "print <args|locals|regs>",
		Short:   "打印参数、局部变量或寄存器值",
		Aliases: []string{"p"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupInfo,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errArgs
			}

			sess := s.replay.Session()
			var (
				d     session.Domain
				items *target.LineItems
			)
			switch args[0] {
			case "args":
				d, items = session.DomainArgs, sess.Args
			case "locals":
				d, items = session.DomainLocals, sess.Locals
			case "regs", "registers":
				d, items = session.DomainRegisters, sess.Registers
			default:
				return fmt.Errorf("unknown panel %q, want args, locals or regs", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sess.Title(d))
			for i := 0; i < items.Len(); i++ {
				// 值发生变化的行用*标记
				mark := " "
				if items.Items[i].Changed {
					mark = "*"
				}
				fmt.Fprintln(out, mark+items.Items[i].Text)
			}
			return nil
		},
	}
}

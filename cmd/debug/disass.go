package debug

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/session"
)

func newDisassCmd(s *DebugShell) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disass",
		Short: "查看反汇编指令",
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupSource,
		},
		Aliases: []string{"dis", "disassemble"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			branches, _ := cmd.Flags().GetBool("branches")
			// flag values outlive a single shell command
			cmd.Flags().Set("branches", "false")
			if !branches {
				s.printPanel(out, session.DomainDisassembly)
				return nil
			}

			// 只列出跳转指令，需要 disassemble /r 输出的机器码
			d := s.replay.Session().Disassembly
			if d == nil {
				return fmt.Errorf("no disassembly yet")
			}
			for _, ln := range d.Lines {
				if ln.IsBranch() {
					fmt.Fprintf(out, "%-6s %s\n", ln.Op, ln.Display())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolP("branches", "b", false, "只显示跳转指令")
	return cmd
}

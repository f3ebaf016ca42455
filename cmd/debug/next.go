package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNextCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "next",
		Short:   "回放到下一次gdb提示符",
		Aliases: []string{"n"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupCtrlFlow,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := s.replay.Next()
			if n == 0 {
				return errReplayDone
			}
			pos, total := s.replay.Position()
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d messages (%d/%d)\n", n, pos, total)
			return nil
		},
	}
}

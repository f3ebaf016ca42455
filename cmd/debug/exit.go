package debug

import (
	"github.com/spf13/cobra"
)

func newExitCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "exit",
		Short:   "结束回放会话",
		Aliases: []string{"quit", "q"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupOthers,
		},
		Run: func(cmd *cobra.Command, args []string) {
			s.Stop()
		},
	}
}

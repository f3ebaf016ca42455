package debug

import (
	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/session"
)

func newBreaksCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "breaks",
		Short:   "列出所有断点",
		Long:    "列出所有断点",
		Aliases: []string{"bs", "breakpoints"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupBreakpoints,
		},
		Run: func(cmd *cobra.Command, args []string) {
			s.printPanel(cmd.OutOrStdout(), session.DomainBreakpoints)
		},
	}
}

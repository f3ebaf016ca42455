package debug

import (
	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/session"
)

func newBacktraceCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "bt",
		Short:   "打印调用栈信息",
		Aliases: []string{"backtrace"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupInfo,
		},
		Run: func(cmd *cobra.Command, args []string) {
			s.printPanel(cmd.OutOrStdout(), session.DomainCallStack)
		},
	}
}

func newThreadsCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "打印线程列表",
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupInfo,
		},
		Run: func(cmd *cobra.Command, args []string) {
			s.printPanel(cmd.OutOrStdout(), session.DomainThreads)
		},
	}
}

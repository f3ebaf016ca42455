package debug

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/symbol"
)

func newHasCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:   "has <locspec>",
		Short: "检查某位置是否有断点",
		Long: `检查某位置是否有断点，源码位置可以通过locspec格式指定。
当前支持的locspec格式，包括两种:
- 指令地址，如 0x0000000000401136
- 文件名:行号，如 main.c:12`,
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupBreakpoints,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errArgs
			}
			loc := args[0]
			if !symbol.IsAddress(loc) {
				if _, _, err := symbol.ParseLoc(loc); err != nil {
					return err
				}
			}

			has := s.replay.Session().HasBreakpoint(loc)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", loc, has)
			return nil
		},
	}
}

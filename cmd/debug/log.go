package debug

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLogCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:   "log [count]",
		Short: "查看最近的日志",
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupOthers,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 20
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v <= 0 {
					return errArgs
				}
				count = v
			}
			if s.ring == nil {
				return nil
			}
			for _, e := range s.ring.Recent(count) {
				fmt.Fprintln(cmd.OutOrStdout(), e.String())
			}
			return nil
		},
	}
}

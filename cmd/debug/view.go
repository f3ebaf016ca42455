package debug

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/session"
)

func newViewCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:   "view <panel> <top> <height>",
		Short: "设置面板的可见区域",
		Long: `设置面板的可见区域，之后的光标定位按照该区域计算。
面板名: source, disassembly, callstack, threads, breakpoints, args, locals, registers`,
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupSource,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return errArgs
			}
			d := session.Domain(args[0])
			known := false
			for _, p := range session.Panels {
				if p == d {
					known = true
				}
			}
			if !known {
				return fmt.Errorf("unknown panel %q", args[0])
			}

			top, err := strconv.Atoi(args[1])
			if err != nil || top < 0 {
				return errArgs
			}
			height, err := strconv.Atoi(args[2])
			if err != nil || height <= 0 {
				return errArgs
			}
			s.replay.Session().SetViewport(d, top, height)
			return nil
		},
	}
}

package debug

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errReplayDone = errors.New("transcript fully replayed")

func newContinueCmd(s *DebugShell) *cobra.Command {
	return &cobra.Command{
		Use:     "continue",
		Short:   "回放剩余全部消息",
		Aliases: []string{"c"},
		Annotations: map[string]string{
			cmdGroupAnnotation: cmdGroupCtrlFlow,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := s.replay.Continue()
			if n == 0 {
				return errReplayDone
			}
			sess := s.replay.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d messages, %d prompts, inferior %q\n", n, sess.Prompts(), sess.Inferior)
			return nil
		},
	}
}

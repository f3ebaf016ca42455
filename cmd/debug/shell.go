package debug

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gdbw/pkg/diag"
)

const (
	cmdGroupAnnotation = "cmd_group_annotation"

	cmdGroupBreakpoints = "1-breaks"
	cmdGroupSource      = "2-source"
	cmdGroupCtrlFlow    = "3-execute"
	cmdGroupInfo        = "4-info"
	cmdGroupOthers      = "5-other"
	cmdGroupCobra       = "other"

	cmdGroupDelimiter = "-"

	prefix    = "gdbw> "
	descShort = "gdbw replay commands"
)

// DebugShell 回放调试会话的交互式shell
type DebugShell struct {
	done   chan bool
	prefix string
	root   *cobra.Command
	liner  *liner.State
	last   string
	out    io.Writer

	replay *Replay
	ring   *diag.Ring

	defers []func()
}

// NewDebugShell 创建一个回放专用的交互管理器
func NewDebugShell(replay *Replay, ring *diag.Ring, out io.Writer) *DebugShell {
	s := &DebugShell{
		done:   make(chan bool),
		prefix: prefix,
		out:    out,
		replay: replay,
		ring:   ring,
	}

	s.root = &cobra.Command{
		Use:           "help [command]",
		Short:         descShort,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	s.root.SetOut(out)
	s.root.SetErr(out)
	s.root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		// 描述信息
		fmt.Fprintln(out, cmd.Short)
		fmt.Fprintln(out)

		// 使用信息
		fmt.Fprintln(out, cmd.Use)
		fmt.Fprintln(out, cmd.Flags().FlagUsages())

		// 命令分组
		fmt.Fprintln(out, helpMessageByGroups(cmd))
	})

	s.root.AddCommand(
		newBreaksCmd(s),
		newHasCmd(s),
		newListCmd(s),
		newDisassCmd(s),
		newNextCmd(s),
		newContinueCmd(s),
		newBacktraceCmd(s),
		newThreadsCmd(s),
		newPrintCmd(s),
		newViewCmd(s),
		newLogCmd(s),
		newExitCmd(s),
	)
	return s
}

// Exec runs one command line.
func (s *DebugShell) Exec(line string) error {
	s.root.SetArgs(strings.Fields(line))
	return s.root.Execute()
}

// Run reads commands until exit or end of input. An empty line repeats the
// previous command.
func (s *DebugShell) Run() error {
	s.liner = liner.NewLiner()
	defer s.liner.Close()

	s.liner.SetCompleter(s.completer)
	s.liner.SetTabCompletionStyle(liner.TabPrints)

	defer s.runDefers()

	for {
		select {
		case <-s.done:
			return nil
		default:
		}

		txt, err := s.liner.Prompt(s.prefix)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		txt = strings.TrimSpace(txt)
		if len(txt) != 0 {
			s.last = txt
			s.liner.AppendHistory(txt)
		} else {
			txt = s.last
		}
		if txt == "" {
			continue
		}

		if err := s.Exec(txt); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// AtExit registers fn to run when Run returns.
func (s *DebugShell) AtExit(fn func()) *DebugShell {
	s.defers = append(s.defers, fn)
	return s
}

// runDefers calls the AtExit functions, last registered first.
func (s *DebugShell) runDefers() {
	for idx := len(s.defers) - 1; idx >= 0; idx-- {
		s.defers[idx]()
	}
	s.defers = nil
}

// Stop ends Run after the current command.
func (s *DebugShell) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Stopped reports whether Stop was called.
func (s *DebugShell) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *DebugShell) completer(line string) []string {
	cmds := []string{}
	for _, c := range s.root.Commands() {
		// complete cmd
		if strings.HasPrefix(c.Use, line) {
			cmds = append(cmds, strings.Split(c.Use, " ")[0])
		}
		// complete cmd's aliases
		for _, alias := range c.Aliases {
			if strings.HasPrefix(alias, line) {
				cmds = append(cmds, alias)
			}
		}
	}
	return cmds
}

var errArgs = errors.New("参数错误")

// helpMessageByGroups 将各个命令按照分组归类，再展示帮助信息
func helpMessageByGroups(cmd *cobra.Command) string {

	// key:group, val:sorted commands in same group
	groups := map[string][]string{}
	for _, c := range cmd.Commands() {
		// 如果没有指定命令分组，放入other组
		groupName, ok := c.Annotations[cmdGroupAnnotation]
		if !ok {
			groupName = cmdGroupCobra
		}

		groupCmds := append(groups[groupName], fmt.Sprintf("  %-16s:%s", c.Name(), c.Short))
		sort.Strings(groupCmds)
		groups[groupName] = groupCmds
	}

	if len(groups[cmdGroupCobra]) != 0 {
		groups[cmdGroupOthers] = append(groups[cmdGroupOthers], groups[cmdGroupCobra]...)
	}
	delete(groups, cmdGroupCobra)

	// 按照分组名进行排序
	groupNames := []string{}
	for k := range groups {
		groupNames = append(groupNames, k)
	}
	sort.Strings(groupNames)

	// 按照group分组，并对组内命令进行排序
	buf := bytes.Buffer{}
	for _, groupName := range groupNames {
		group := strings.Split(groupName, cmdGroupDelimiter)[1]
		buf.WriteString(fmt.Sprintf("- [%s]\n", group))

		for _, cmd := range groups[groupName] {
			buf.WriteString(fmt.Sprintf("%s\n", cmd))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

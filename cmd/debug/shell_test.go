package debug

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitzhangjie/gdbw/pkg/channel"
	"github.com/hitzhangjie/gdbw/pkg/diag"
	"github.com/hitzhangjie/gdbw/pkg/session"
	"github.com/hitzhangjie/gdbw/pkg/target"
)

func transcript() []string {
	bpRow := fmt.Sprintf("%-8s%-15s%-5s%-4s%-19s%s", "1", "breakpoint", "keep", "y", "0x0000000000401001", "in main at main.c:2")
	return []string{
		session.PromptTag + "\n",
		"info inferiors\n  Num  Description       Connection           Executable\n* 1    process 7         1 (native)           /tmp/prog\n",
		"info frame\nStack level 0, frame at 0x7fffffffe0f0:\n rip = 0x401008 in main (main.c:3)\n",
		"info breakpoints\nNum     Type           Disp Enb Address            What\n" + bpRow + "\n",
		"info source\nLocated in /src/main.c\n",
		"info line *$pc\nLine 3 of \"main.c\" starts at address 0x401008 <main+8>.\n",
		"info locals\ni = 0\n",
		"bt 64\n#0  main () at main.c:3\n",
		"info threads\n* 1    Thread 0x7ffff7d8a740 (LWP 7) \"prog\" main () at main.c:3\n",
		session.PromptTag + "\n",
		"info locals\ni = 1\n",
	}
}

func newTestShell(t *testing.T) (*DebugShell, *bytes.Buffer, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	var text []string
	for i := 1; i <= 10; i++ {
		text = append(text, fmt.Sprintf("line %d", i))
	}
	require.NoError(t, afero.WriteFile(fs, "/src/main.c", []byte(strings.Join(text, "\n")+"\n"), 0644))

	ring := diag.NewRing(16)
	log, _, err := diag.New(diag.Options{Ring: ring, Level: "debug"})
	require.NoError(t, err)

	sess := session.New(session.Config{
		Loader: target.SourceLoader{Fs: fs, TabWidth: 4},
		Logger: log,
	})
	var out bytes.Buffer
	return NewDebugShell(NewReplay(sess, transcript()), ring, &out), &out, fs
}

func run(t *testing.T, s *DebugShell, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, s.Exec(line), line)
	return out.String()
}

func TestLoadTranscript(t *testing.T) {
	fs := afero.NewMemMapFs()
	var wire []byte
	for _, m := range transcript() {
		wire = append(wire, channel.Frame(m)...)
	}
	require.NoError(t, afero.WriteFile(fs, "/t.rec", wire, 0644))

	msgs, err := LoadTranscript(fs, "/t.rec")
	require.NoError(t, err)
	assert.Equal(t, transcript(), msgs)

	require.NoError(t, afero.WriteFile(fs, "/bad.rec", append(wire, "info fr"...), 0644))
	_, err = LoadTranscript(fs, "/bad.rec")
	assert.Error(t, err)

	_, err = LoadTranscript(fs, "/missing.rec")
	assert.Error(t, err)
}

func TestReplaySteps(t *testing.T) {
	s, _, _ := newTestShell(t)
	r := s.replay

	assert.Equal(t, 9, r.Next())
	pos, total := r.Position()
	assert.Equal(t, 9, pos)
	assert.Equal(t, 11, total)
	assert.Equal(t, "7", r.Session().Inferior)

	assert.Equal(t, 2, r.Next())
	assert.Equal(t, 0, r.Next())
	assert.Equal(t, 0, r.Continue())
	assert.EqualValues(t, 2, r.Session().Prompts())
}

func TestShellPanels(t *testing.T) {
	s, out, _ := newTestShell(t)

	assert.Contains(t, run(t, s, out, "next"), "applied 9 messages (9/11)")

	got := run(t, s, out, "breaks")
	assert.Contains(t, got, "0x0000000000401001 in main")
	assert.Contains(t, got, "       at main.c:2")

	assert.Equal(t, "main.c:2: true\n", run(t, s, out, "has main.c:2"))
	assert.Equal(t, "0x0000000000401001: true\n", run(t, s, out, "has 0x0000000000401001"))
	assert.Equal(t, "main.c:3: false\n", run(t, s, out, "has main.c:3"))

	got = run(t, s, out, "list")
	assert.Contains(t, got, "X   \t2\tline 2")
	assert.Contains(t, got, "  =>\t3\tline 3")
	assert.NotContains(t, got, "line 9")

	got = run(t, s, out, "list /src/main.c:9")
	assert.Contains(t, got, "  =>\t9\tline 9")

	assert.Contains(t, run(t, s, out, "bt"), "=>[0]  main")
	assert.Contains(t, run(t, s, out, "threads"), "*1   Thread 0x7ffff7d8a740 (LWP 7) \"prog\" main")

	run(t, s, out, "n")
	assert.Contains(t, run(t, s, out, "print locals"), "*  i = 1")
	assert.Contains(t, run(t, s, out, "p args"), "[ Args ]")
}

func TestShellView(t *testing.T) {
	s, out, _ := newTestShell(t)
	run(t, s, out, "continue")

	run(t, s, out, "view source 0 2")
	got := run(t, s, out, "list")
	assert.Contains(t, got, "   1 line 1")
	assert.Contains(t, got, "   2 line 2")
	assert.NotContains(t, got, "line 3")

	assert.Error(t, s.Exec("view nowhere 0 2"))
	assert.Error(t, s.Exec("view source 0"))
	assert.Error(t, s.Exec("view source 0 zero"))
}

func TestShellErrors(t *testing.T) {
	s, out, _ := newTestShell(t)

	assert.ErrorIs(t, s.Exec("has"), errArgs)
	assert.Error(t, s.Exec("has nowhere"))
	assert.Error(t, s.Exec("print heap"))
	assert.Error(t, s.Exec("frobnicate"))
	assert.Error(t, s.Exec("disass -b"), "no disassembly yet")

	run(t, s, out, "c")
	assert.ErrorIs(t, s.Exec("next"), errReplayDone)
	assert.ErrorIs(t, s.Exec("continue"), errReplayDone)
}

func TestShellLogAndExit(t *testing.T) {
	s, out, _ := newTestShell(t)
	run(t, s, out, "continue")

	assert.Contains(t, run(t, s, out, "log"), "inferior started pid=7")

	assert.False(t, s.Stopped())
	run(t, s, out, "exit")
	assert.True(t, s.Stopped())
	s.Stop()
}

func TestHelpGroups(t *testing.T) {
	s, out, _ := newTestShell(t)
	got := run(t, s, out, "help")
	assert.Contains(t, got, "- [breaks]")
	assert.Contains(t, got, "- [execute]")
	assert.Contains(t, got, "  next            :")

	assert.ElementsMatch(t, []string{"next"}, s.completer("nex"))
}

func TestAtExit(t *testing.T) {
	s, _, _ := newTestShell(t)
	s.replay.Next()

	var calls []string
	s.AtExit(func() { calls = append(calls, "first") }).
		AtExit(func() { calls = append(calls, s.replay.Summary()) })

	s.runDefers()
	assert.Equal(t, []string{"replayed 9/11 messages, 1 prompts, 1 runs", "first"}, calls)

	// unwinding twice does not repeat the callbacks
	s.runDefers()
	assert.Len(t, calls, 2)
}

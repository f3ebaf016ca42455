package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backtrace = `#0  add (a=1, b=2) at calc.c:3
#1  0x0000555555555175 in compute (n=4) at calc.c:11
#2  0x00005555555551a0 in main () at main.c:20
#3  0x00007ffff7dd0d90 in __libc_start_call_main () from /lib/x86_64-linux-gnu/libc.so.6
`

func TestParseBacktraceFrames(t *testing.T) {
	cs, err := ParseBacktrace(backtrace, -1)
	require.NoError(t, err)
	require.Len(t, cs.Frames, 4)

	assert.Equal(t, StackFrame{Index: 0, Function: "add", Args: "(a=1, b=2)", Location: "calc.c:3"}, cs.Frames[0])
	assert.Equal(t, StackFrame{
		Index:    1,
		Address:  "0x0000555555555175",
		Function: "compute",
		Args:     "(n=4)",
		Location: "calc.c:11",
	}, cs.Frames[1])
	assert.Equal(t, "main", cs.Frames[2].Function)
	assert.Equal(t, "from /lib/x86_64-linux-gnu/libc.so.6", cs.Frames[3].Location)
}

func TestParseBacktraceRender(t *testing.T) {
	cs, err := ParseBacktrace(backtrace, -1)
	require.NoError(t, err)
	assert.Equal(t, -1, cs.Cursor)
	assert.Equal(t, []string{
		"  [0]  add",
		"       calc.c:3",
		"  [1]  compute",
		"       calc.c:11",
		"  [2]  main",
		"       main.c:20",
		"  [3]  __libc_start_call_main from /lib/x86_64-linux-gnu/libc.so.6",
	}, cs.Lines)
}

func TestParseBacktraceSelected(t *testing.T) {
	cs, err := ParseBacktrace(backtrace, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cs.Selected)
	require.Equal(t, 2, cs.Cursor)
	assert.Equal(t, "=>[1]  compute", cs.Lines[cs.Cursor])
	assert.Equal(t, "  [0]  add", cs.Lines[0])
}

func TestParseBacktraceEmpty(t *testing.T) {
	cs, err := ParseBacktrace("No stack.\n", 0)
	require.NoError(t, err)
	assert.Empty(t, cs.Frames)
	assert.Equal(t, -1, cs.Cursor)
	assert.Equal(t, []string{"No stack."}, cs.Lines)
}

func TestParseFrameInfo(t *testing.T) {
	out := `Stack level 1, frame at 0x7fffffffe0f0:
 rip = 0x555555555175 in compute (calc.c:11); saved rip = 0x5555555551a0
 called by frame at 0x7fffffffe110, caller of frame at 0x7fffffffe0d0
`
	info := ParseFrameInfo(out)
	assert.Equal(t, 1, info.Level)
	assert.Equal(t, "0x7fffffffe0f0", info.Address)

	info = ParseFrameInfo("No stack.\n")
	assert.Equal(t, FrameInfo{Level: -1}, info)
}

func TestParseInferior(t *testing.T) {
	pid, ok := ParseInferior("  Num  Description       Connection           Executable\n* 1    process 1234      1 (native)           /tmp/prog\n")
	assert.True(t, ok)
	assert.Equal(t, "1234", pid)

	_, ok = ParseInferior("  Num  Description       Connection           Executable\n* 1    <null>                                 /tmp/prog\n")
	assert.False(t, ok)
}

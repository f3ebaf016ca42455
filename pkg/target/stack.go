package target

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	frameMarkRe = regexp.MustCompile(`#(\d+)`)
	argListRe   = regexp.MustCompile(`\s*\(.*\)`)
	frameLineRe = regexp.MustCompile(`^#(\d+)\s+(.*)$`)
)

// StackFrame 栈帧信息
type StackFrame struct {
	Index    int
	Address  string // return address, empty for frames gdb prints without one
	Function string
	Args     string // "(a=1, b=0x0)" as printed
	Location string // file:line, or "from <library>", empty when unknown
}

// CallStack is the parsed `bt` output.
type CallStack struct {
	Frames   []StackFrame
	Selected int // selected frame level, -1 when no frame is known
	Lines    []string
	Cursor   int // index into Lines of the selected frame, -1 when none
}

// ParseBacktrace parses `bt N` output. selected is the frame level reported
// by `info frame`, or -1.
func ParseBacktrace(output string, selected int) (*CallStack, error) {
	cs := &CallStack{Selected: selected, Cursor: -1}

	for _, line := range strings.Split(output, "\n") {
		m := frameLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: frame number %q", ErrMalformed, m[1])
		}
		cs.Frames = append(cs.Frames, parseFrame(idx, m[2]))
	}

	cs.Lines = renderBacktrace(output, selected)
	if selected >= 0 {
		mark := fmt.Sprintf("=>[%d]", selected)
		for i, l := range cs.Lines {
			if strings.HasPrefix(l, mark) {
				cs.Cursor = i
				break
			}
		}
	}
	return cs, nil
}

func parseFrame(idx int, rest string) StackFrame {
	f := StackFrame{Index: idx}

	if strings.HasPrefix(rest, "0x") {
		if p := strings.Index(rest, " in "); p > 0 {
			f.Address = rest[:p]
			rest = rest[p+4:]
		}
	}

	if p := strings.LastIndex(rest, " at "); p >= 0 {
		f.Location = strings.TrimSpace(rest[p+4:])
		rest = rest[:p]
	} else if p := strings.LastIndex(rest, " from "); p >= 0 {
		f.Location = strings.TrimSpace(rest[p+1:])
		rest = rest[:p]
	}

	if p := strings.Index(rest, " ("); p >= 0 {
		f.Function = strings.TrimSpace(rest[:p])
		f.Args = strings.TrimSpace(rest[p+1:])
	} else {
		f.Function = strings.TrimSpace(rest)
	}
	return f
}

// renderBacktrace rewrites the raw backtrace for display: locations become
// indented continuation lines, argument lists and addresses are dropped and
// "#N" becomes a fixed-width "[N]" marker, "=>[N]" for the selected frame.
func renderBacktrace(output string, selected int) []string {
	text := strings.ReplaceAll(output, " at ", "\n       ")
	text = argListRe.ReplaceAllString(text, "")
	text = frameMarkRe.ReplaceAllString(text, "  [$1]")
	if selected >= 0 {
		text = strings.ReplaceAll(text,
			fmt.Sprintf("  [%d]", selected), fmt.Sprintf("=>[%d]", selected))
	}

	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = stripAddress(l)
	}
	return lines
}

// stripAddress drops the "0x... in " prefix that follows a frame marker.
func stripAddress(line string) string {
	p := strings.Index(line, "]")
	if p < 0 {
		return line
	}
	rest := strings.TrimLeft(line[p+1:], " ")
	if !strings.HasPrefix(rest, "0x") {
		return line
	}
	in := strings.Index(rest, " in ")
	if in < 0 {
		return line
	}
	return line[:p+1] + "  " + rest[in+4:]
}

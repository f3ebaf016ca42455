package target

import (
	"fmt"
	"regexp"
	"strings"
)

var threadRe = regexp.MustCompile(`(\d+)\s+Thread (.+)(\(.+\))(.+)\s+\(.*\)`)

// ThreadInfo 线程信息
type ThreadInfo struct {
	ID          string
	Current     bool
	Description string // "0x7ffff7d89740 (LWP 4242) "prog" main"
	Location    string // file:line of the thread's innermost frame, if known
}

// ThreadList is the parsed `info threads` output.
type ThreadList struct {
	Threads []ThreadInfo
	Lines   []string
	Cursor  int // line of the current thread, -1 if none
	// Raw is the verbatim output when no thread row was recognised.
	Raw string
}

// ParseThreads parses `info threads` output. Lines that are not thread rows,
// such as the header, are dropped.
func ParseThreads(output string) (*ThreadList, error) {
	tl := &ThreadList{Cursor: -1}

	for _, line := range strings.Split(output, "\n") {
		m := threadRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		group := func(i int) string { return line[m[2*i]:m[2*i+1]] }

		th := ThreadInfo{
			ID:          group(1),
			Current:     strings.HasPrefix(line, "*"),
			Description: strings.TrimSpace(group(2) + group(3) + group(4)),
		}
		ch := ' '
		if th.Current {
			ch = '*'
		}
		row := fmt.Sprintf("%c%-3s Thread %s%s%s", ch, th.ID, group(2), group(3), group(4))
		if th.Current && tl.Cursor < 0 {
			tl.Cursor = len(tl.Lines)
		}
		tl.Lines = append(tl.Lines, row)

		if p := strings.Index(line[m[3]:], " at "); p >= 0 {
			at := line[m[3]+p:]
			th.Location = strings.TrimSpace(strings.TrimPrefix(at, " at "))
			tl.Lines = append(tl.Lines, "    "+at)
		}
		tl.Threads = append(tl.Threads, th)
	}

	if len(tl.Threads) == 0 {
		tl.Raw = output
	}
	return tl, nil
}

// Current returns the thread gdb has selected.
func (tl *ThreadList) Current() (ThreadInfo, bool) {
	for _, th := range tl.Threads {
		if th.Current {
			return th, true
		}
	}
	return ThreadInfo{}, false
}

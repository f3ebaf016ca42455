package target

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hitzhangjie/gdbw/pkg/symbol"
)

var (
	breakNumRe = regexp.MustCompile(`^(\d+\.\d+|\d+)`)
	hitCountRe = regexp.MustCompile(`hit (\d+) time`)
)

// Breakpoint 断点信息, one row of `info breakpoints`
type Breakpoint struct {
	Number   string // "1", or "1.2" for a secondary location of a multi-location breakpoint
	Type     string // breakpoint, hw watchpoint, ...
	Disp     string // keep, del, dis
	Enabled  bool
	Address  string // empty, <PENDING>, <MULTIPLE> or a hex address
	What     string // human description, e.g. "in main"
	Locus    string // file:line the breakpoint resolved to, empty if unresolved
	HitCount int    // 0 when gdb did not report hits
	Changed  bool   // hit count differs from the previous table
}

// BreakpointTable 所有的断点信息
type BreakpointTable struct {
	Breakpoints []*Breakpoint
	// Raw is the verbatim output when it held no breakpoint rows.
	Raw string

	sites map[string]struct{}
	hits  map[string]int
}

// NewBreakpointTable returns an empty table.
func NewBreakpointTable() *BreakpointTable {
	return &BreakpointTable{
		sites: map[string]struct{}{},
		hits:  map[string]int{},
	}
}

// Len 返回长度
func (t *BreakpointTable) Len() int {
	return len(t.Breakpoints)
}

// Has reports whether loc, an address or a file:line, is a breakpoint site.
func (t *BreakpointTable) Has(loc string) bool {
	if t == nil {
		return false
	}
	_, ok := t.sites[loc]
	return ok
}

// Hits returns the hit count recorded for breakpoint number, 0 if none.
func (t *BreakpointTable) Hits(number string) int {
	if t == nil {
		return 0
	}
	return t.hits[number]
}

// Get returns the breakpoint with the given number.
func (t *BreakpointTable) Get(number string) (*Breakpoint, bool) {
	for _, b := range t.Breakpoints {
		if b.Number == number {
			return b, true
		}
	}
	return nil, false
}

type columns struct {
	typ, disp, enb, address, what int
}

// parseHeader locates the column starts from the header labels. Address is
// absent when gdb runs with `set print address off`.
func parseHeader(header string) (columns, error) {
	var c columns
	c.typ = strings.Index(header, "Type")
	if c.typ < 0 {
		return c, fmt.Errorf("%w: breakpoint header %q", ErrMalformed, header)
	}
	c.disp = indexFrom(header, "Disp", c.typ)
	c.enb = indexFrom(header, "Enb", c.disp)
	c.address = indexFrom(header, "Address", c.enb)
	from := c.enb
	if c.address >= 0 {
		from = c.address
	}
	c.what = indexFrom(header, "What", from)
	if c.disp < 0 || c.enb < 0 || c.what < 0 {
		return c, fmt.Errorf("%w: breakpoint header %q", ErrMalformed, header)
	}
	return c, nil
}

func indexFrom(s, sub string, from int) int {
	if from < 0 || from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// slice cuts s[begin:end] clamped to the row length; end < 0 means to the end.
func slice(s string, begin, end int) string {
	if begin < 0 || begin >= len(s) {
		return ""
	}
	if end < 0 || end > len(s) {
		end = len(s)
	}
	if end < begin {
		return ""
	}
	return strings.TrimSpace(s[begin:end])
}

// ParseBreakpoints builds a new table from `info breakpoints` output, diffing
// hit counts against prev (which may be nil).
func ParseBreakpoints(prev *BreakpointTable, output string) (*BreakpointTable, error) {
	table := NewBreakpointTable()

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		table.Raw = output
		return table, nil
	}

	cols, err := parseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	var last *Breakpoint
	for _, line := range lines[1:] {
		if m := breakNumRe.FindString(line); m != "" {
			last = parseBreakpointRow(table, cols, m, line)
			continue
		}

		m := hitCountRe.FindStringSubmatch(line)
		if m == nil || last == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: hit count %q", ErrMalformed, m[1])
		}
		last.HitCount = n
		table.hits[last.Number] = n
		if old, ok := prev.hitsFor(last.Number); !ok || old != n {
			last.Changed = true
		}
	}

	if table.Len() == 0 {
		table.Raw = output
	}
	return table, nil
}

func (t *BreakpointTable) hitsFor(number string) (int, bool) {
	if t == nil {
		return 0, false
	}
	n, ok := t.hits[number]
	return n, ok && n != 0
}

func parseBreakpointRow(table *BreakpointTable, cols columns, number, line string) *Breakpoint {
	b := &Breakpoint{Number: number}
	b.Type = slice(line, cols.typ, cols.disp)
	b.Disp = slice(line, cols.disp, cols.enb)
	if cols.address >= 0 {
		b.Enabled = slice(line, cols.enb, cols.address) == "y"
		b.Address = slice(line, cols.address, cols.what)
	} else {
		b.Enabled = slice(line, cols.enb, cols.what) == "y"
	}

	what := slice(line, cols.what, -1)
	switch {
	case strings.HasPrefix(what, "at "):
		b.Locus = strings.TrimSpace(what[3:])
	case strings.Contains(what, " at "):
		idx := strings.LastIndex(what, " at ")
		b.Locus = strings.TrimSpace(what[idx+4:])
		b.What = strings.TrimSpace(what[:idx])
	default:
		b.What = what
	}

	if symbol.IsAddress(b.Address) {
		table.sites[b.Address] = struct{}{}
	}
	if b.Locus != "" {
		table.sites[b.Locus] = struct{}{}
	}
	table.Breakpoints = append(table.Breakpoints, b)
	return b
}

// Lines renders the table one row per breakpoint with the locus as a
// continuation line; changed rows are flagged with '*'.
func (t *BreakpointTable) Lines() []string {
	if t.Len() == 0 {
		if t.Raw == "" {
			return nil
		}
		return strings.Split(strings.TrimRight(t.Raw, "\n"), "\n")
	}

	lines := make([]string, 0, 2*t.Len())
	for _, b := range t.Breakpoints {
		ch := ' '
		if b.Changed {
			ch = '*'
		}
		line := fmt.Sprintf(" %c%-4s %-10s %-18s %s", ch, b.Number, b.Type, b.Address, b.What)
		if b.HitCount > 0 {
			line += fmt.Sprintf(" hit %d time", b.HitCount)
			if b.HitCount != 1 {
				line += "s"
			}
		}
		lines = append(lines, line)
		if b.Locus != "" {
			lines = append(lines, "       at "+b.Locus)
		}
	}
	return lines
}

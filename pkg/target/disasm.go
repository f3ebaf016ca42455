package target

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/hitzhangjie/gdbw/pkg/view"
)

const (
	dumpHeader  = "Dump of assembler code"
	dumpTrailer = "End of assembler dump."

	// the instruction address sits at a fixed offset after the "=> " marker column
	addrBegin = 3
	addrEnd   = 3 + 18
)

var (
	dumpFuncRe = regexp.MustCompile(`Dump of assembler code for function (.+):`)
	rawBytesRe = regexp.MustCompile(`^[0-9a-fA-F]{2}( [0-9a-fA-F]{2})*$`)

	// the highlighter downstream reserves '$' and '#'
	escaper   = strings.NewReplacer("$", "/", "#", "^")
	unescaper = strings.NewReplacer("/", "$", "^", "#")
)

// EscapeSentinels swaps characters the highlighter treats specially for
// stand-ins; UnescapeSentinels reverses it.
func EscapeSentinels(s string) string { return escaper.Replace(s) }

// UnescapeSentinels restores text escaped by EscapeSentinels.
func UnescapeSentinels(s string) string { return unescaper.Replace(s) }

// Sites answers "is loc a breakpoint site".
type Sites interface {
	Has(loc string) bool
}

// DisassemblyLine one instruction of the current function
type DisassemblyLine struct {
	Address    string
	Text       string // escaped, tabs expanded
	Current    bool
	Breakpoint bool
	Bytes      []byte // raw encoding, present for `disassemble /r`
	Op         string // mnemonic decoded from Bytes, empty if not decodable
}

// Display returns the line as it should be presented, breakpoint marker first.
func (l DisassemblyLine) Display() string {
	marker := "  "
	if l.Breakpoint {
		marker = "X "
	}
	return marker + UnescapeSentinels(l.Text)
}

// IsBranch reports whether the decoded instruction transfers control.
func (l DisassemblyLine) IsBranch() bool {
	if l.Op == "" {
		return false
	}
	return l.Op == "call" || l.Op == "ret" || strings.HasPrefix(l.Op, "j") || strings.HasPrefix(l.Op, "loop")
}

// Disassembly is the parsed `disassemble` output of the current function.
type Disassembly struct {
	Function string
	Lines    []DisassemblyLine
	Current  int // index of the "=>" line, -1 if absent
	Cursor   view.Cursor
}

// ParseDisassembly parses a disassembly dump; sites marks instructions that
// carry a breakpoint and may be nil.
func ParseDisassembly(output string, sites Sites) (*Disassembly, error) {
	lines := strings.Split(output, "\n")
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), dumpHeader) {
		return nil, fmt.Errorf("%w: disassembly header %q", ErrMalformed, lines[0])
	}

	d := &Disassembly{Current: -1}
	if m := dumpFuncRe.FindStringSubmatch(lines[0]); m != nil {
		d.Function = m[1]
	}

	body := lines[1:]
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	if len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == dumpTrailer {
		body = body[:len(body)-1]
	}

	for i, raw := range body {
		line := DisassemblyLine{
			Current: strings.HasPrefix(raw, "=>"),
			Text:    strings.ReplaceAll(EscapeSentinels(raw), "\t", " "),
		}
		if line.Current {
			d.Current = i
		}
		line.Address = instructionAddress(raw)
		if sites != nil && line.Address != "" {
			line.Breakpoint = sites.Has(line.Address)
		}
		line.Bytes, line.Op = decodeRawBytes(raw)
		d.Lines = append(d.Lines, line)
	}
	return d, nil
}

func instructionAddress(line string) string {
	if len(line) <= addrBegin {
		return ""
	}
	end := addrEnd
	if end > len(line) {
		end = len(line)
	}
	addr := line[addrBegin:end]
	if p := strings.IndexAny(addr, " \t"); p >= 0 {
		addr = addr[:p]
	}
	return addr
}

// decodeRawBytes picks the encoding column printed by `disassemble /r`
// ("addr <+off>:\tbytes\tasm") and decodes it as amd64.
func decodeRawBytes(line string) ([]byte, string) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return nil, ""
	}
	col := strings.TrimSpace(fields[1])
	if !rawBytesRe.MatchString(col) {
		return nil, ""
	}
	buf, err := hex.DecodeString(strings.ReplaceAll(col, " ", ""))
	if err != nil {
		return nil, ""
	}
	inst, err := x86asm.Decode(buf, 64)
	if err != nil {
		return buf, ""
	}
	return buf, strings.ToLower(inst.Op.String())
}

// Display returns all lines as presented.
func (d *Disassembly) Display() []string {
	out := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		out[i] = l.Display()
	}
	return out
}

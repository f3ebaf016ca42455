package session

import (
	"fmt"
	"io"
	"strings"
)

// Panels lists the domains shown by WriteStatus, in display order.
var Panels = []Domain{
	DomainSource,
	DomainDisassembly,
	DomainArgs,
	DomainLocals,
	DomainRegisters,
	DomainCallStack,
	DomainThreads,
	DomainBreakpoints,
}

// Title returns the panel heading of d.
func (s *Session) Title(d Domain) string {
	switch d {
	case DomainSource:
		if s.Source == nil || s.Source.Path == "" {
			return "[ no source file ]"
		}
		return "[ " + s.Source.Path + " ]"
	case DomainDisassembly:
		if s.Disassembly != nil && s.Disassembly.Function != "" {
			return "[ Disassembly for function " + s.Disassembly.Function + " ]"
		}
		return "[ Disassembly ]"
	case DomainCallStack:
		return "[ Callstack ]"
	}
	name := string(d)
	if name == "" {
		return "[ ]"
	}
	return "[ " + strings.ToUpper(name[:1]) + name[1:] + " ]"
}

// Panel returns the lines of d as presented to the user.
func (s *Session) Panel(d Domain) []string {
	switch d {
	case DomainSource:
		src := s.Source
		if src == nil {
			return nil
		}
		out := make([]string, len(src.Text))
		for i, text := range src.Text {
			out[i] = fmt.Sprintf("%s%4d %s", src.Prefix(i, s.Breakpoints), i+1, text)
		}
		return out
	case DomainDisassembly:
		if s.Disassembly == nil {
			return nil
		}
		return s.Disassembly.Display()
	case DomainArgs:
		return s.Args.Lines()
	case DomainLocals:
		return s.Locals.Lines()
	case DomainRegisters:
		return s.Registers.Lines()
	case DomainCallStack:
		if s.Stack == nil {
			return nil
		}
		return s.Stack.Lines
	case DomainThreads:
		if s.Threads == nil {
			return nil
		}
		if len(s.Threads.Threads) == 0 {
			return splitRaw(s.Threads.Raw)
		}
		return s.Threads.Lines
	case DomainBreakpoints:
		return s.Breakpoints.Lines()
	}
	return nil
}

func splitRaw(raw string) []string {
	raw = strings.TrimRight(raw, "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// WriteStatus dumps every panel to w, headed by its title.
func (s *Session) WriteStatus(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "inferior=%s command=%s frame=%s level=%d generation=%d\n\n",
		s.Inferior, s.Command, s.Frame, s.FrameLevel, s.Generation()); err != nil {
		return err
	}
	for _, d := range Panels {
		if _, err := fmt.Fprintln(w, s.Title(d)); err != nil {
			return err
		}
		for _, line := range s.Panel(d) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

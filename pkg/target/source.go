package target

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/hitzhangjie/gdbw/pkg/symbol"
	"github.com/hitzhangjie/gdbw/pkg/view"
)

var (
	locatedInRe = regexp.MustCompile(`Located in (.+)`)
	lineOfRe    = regexp.MustCompile(`Line (\d+) of`)
)

// Source is the file the program is stopped in.
type Source struct {
	Path    string
	Name    string // basename of Path
	Text    []string
	Current int  // 0-based highlighted line, -1 if unknown
	Fresh   bool // Text was (re)loaded by the last `info source`
	Cursor  view.Cursor
}

// NewSource returns an empty source snapshot.
func NewSource() *Source {
	return &Source{Current: -1}
}

func (s *Source) clone() *Source {
	if s == nil {
		return NewSource()
	}
	c := *s
	return &c
}

// SourceLoader reads source files; tabs are expanded to tabWidth spaces.
type SourceLoader struct {
	Fs       afero.Fs
	TabWidth int
}

// Load reads path and splits it into lines.
func (l SourceLoader) Load(path string) ([]string, error) {
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dat, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	width := l.TabWidth
	if width <= 0 {
		width = 4
	}
	text := strings.ReplaceAll(string(dat), "\t", strings.Repeat(" ", width))
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

// ParseSourceFile handles `info source`. The file is only read when its path
// differs from prev's, so a poll never resets a scrolled view of the same file.
func ParseSourceFile(prev *Source, output string, loader SourceLoader) (*Source, error) {
	m := locatedInRe.FindStringSubmatch(output)
	if m == nil {
		s := NewSource()
		s.Fresh = true
		return s, nil
	}

	path := strings.TrimSpace(m[1])
	if prev != nil && path == prev.Path {
		s := prev.clone()
		s.Fresh = false
		return s, nil
	}

	text, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return &Source{
		Path:    path,
		Name:    filepath.Base(path),
		Text:    text,
		Current: -1,
		Fresh:   true,
		Cursor:  view.Cursor{Move: true, Line: 0},
	}, nil
}

// ParseSourceLine handles `info line`, which reports a 1-based line. Output
// without a line number leaves prev as it is.
func ParseSourceLine(prev *Source, output string) (*Source, error) {
	m := lineOfRe.FindStringSubmatch(output)
	if m == nil {
		return prev, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: line number %q", ErrMalformed, m[1])
	}
	s := prev.clone()
	s.Current = n - 1
	return s, nil
}

// Reload replaces the text of the current file, keeping the highlighted line
// and cursor.
func (s *Source) Reload(loader SourceLoader) (*Source, error) {
	if s == nil || s.Path == "" {
		return s, nil
	}
	text, err := loader.Load(s.Path)
	if err != nil {
		return nil, err
	}
	c := s.clone()
	c.Text = text
	c.Fresh = false
	c.Cursor = view.Cursor{}
	return c, nil
}

// HasBreakpoint reports whether 0-based line carries a breakpoint, matching
// either the full path or the basename.
func (s *Source) HasBreakpoint(line int, sites Sites) bool {
	if s == nil || s.Path == "" || sites == nil {
		return false
	}
	for _, loc := range symbol.Candidates(s.Path, line+1) {
		if sites.Has(loc) {
			return true
		}
	}
	return false
}

// Prefix is the gutter for 0-based line: a breakpoint marker then "=>" on the
// highlighted line.
func (s *Source) Prefix(line int, sites Sites) string {
	prefix := "  "
	if s.HasBreakpoint(line, sites) {
		prefix = "X "
	}
	if line == s.Current {
		return prefix + "=>"
	}
	return prefix + "  "
}

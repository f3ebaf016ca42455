package symbol

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidLoc is returned when a location is not of the form file:lineno
var ErrInvalidLoc = errors.New("wrong loc should be like filename:lineno")

var hexAddr = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

// IsAddress reports whether s looks like a raw instruction address, e.g. 0x0000555555555141
func IsAddress(s string) bool {
	return hexAddr.MatchString(s)
}

// ParseLoc parse location `loc` to file:lineno
func ParseLoc(loc string) (string, int, error) {
	idx := strings.LastIndex(loc, ":")
	if idx <= 0 || idx == len(loc)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLoc, loc)
	}
	filename, linenostr := loc[:idx], loc[idx+1:]
	lineno, err := strconv.Atoi(linenostr)
	if err != nil || lineno <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLoc, loc)
	}
	return filename, lineno, nil
}

// FileLine builds the locus string gdb prints for a source line, lineno is 1-based.
func FileLine(file string, lineno int) string {
	return file + ":" + strconv.Itoa(lineno)
}

// Candidates returns the loci under which a source line of `path` may be
// registered as a breakpoint site: gdb reports either the full path or the
// basename, depending on how the program was compiled.
func Candidates(path string, lineno int) []string {
	full := FileLine(path, lineno)
	base := filepath.Base(path)
	if base == path {
		return []string{full}
	}
	return []string{full, FileLine(base, lineno)}
}

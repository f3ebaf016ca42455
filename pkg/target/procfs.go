package target

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/afero"
)

// ProcComm reads the command name of pid from /proc/pid/comm, falling back to
// the parenthesised name in /proc/pid/stat.
func ProcComm(fs afero.Fs, pid string) (string, error) {
	comm, err := afero.ReadFile(fs, fmt.Sprintf("/proc/%s/comm", pid))
	if err == nil {
		comm = bytes.TrimSuffix(comm, []byte("\n"))
	}
	if len(comm) != 0 {
		return string(comm), nil
	}

	stat, err := afero.ReadFile(fs, fmt.Sprintf("/proc/%s/stat", pid))
	if err != nil {
		return "", fmt.Errorf("read proc stat: %w", err)
	}
	rexp, err := regexp.Compile(regexp.QuoteMeta(pid) + `\s*\((.*)\)`)
	if err != nil {
		return "", err
	}
	m := rexp.FindSubmatch(stat)
	if m == nil {
		return "", fmt.Errorf("%w: no command in /proc/%s/stat", ErrMalformed, pid)
	}
	return string(m[1]), nil
}

package target

import (
	"regexp"
	"strconv"
)

var (
	stackLevelRe = regexp.MustCompile(`Stack level (\d+)`)
	frameAddrRe  = regexp.MustCompile(`frame at (0x[0-9a-fA-F]+)`)
	inferiorRe   = regexp.MustCompile(`process (\d+)`)
)

// FrameInfo is what the session needs from `info frame`.
type FrameInfo struct {
	Level   int    // selected frame level, -1 if unknown
	Address string // canonical frame address, empty if unknown
}

// ParseFrameInfo extracts the selected frame level and its frame address.
// A stopped-less program yields Level -1 and an empty Address.
func ParseFrameInfo(output string) FrameInfo {
	info := FrameInfo{Level: -1}
	if m := stackLevelRe.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			info.Level = n
		}
	}
	if m := frameAddrRe.FindStringSubmatch(output); m != nil {
		info.Address = m[1]
	}
	return info
}

// ParseInferior returns the pid of the live inferior from `info inferiors`.
// ok is false when no process is running.
func ParseInferior(output string) (pid string, ok bool) {
	m := inferiorRe.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return m[1], true
}

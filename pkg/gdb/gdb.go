// Package gdb locates, checks and starts the gdb process gdbw drives.
package gdb

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
)

//go:embed helper.py
var helperScript []byte

// DefaultConstraint is the oldest gdb whose python API the helper relies on.
const DefaultConstraint = ">= 7.12"

// StopDelay is how long gdb gets to exit after SIGTERM before it is killed.
const StopDelay = 5 * time.Second

var (
	// ErrVersion is returned when gdb is older than the configured constraint.
	ErrVersion = errors.New("unsupported gdb version")

	versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)
)

// Locate resolves the gdb executable; an empty name means "gdb" on PATH.
func Locate(name string) (string, error) {
	if name == "" {
		name = "gdb"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("locate gdb: %w", err)
	}
	return path, nil
}

// ParseVersion extracts the version from the first line of `gdb --version`.
// Distributions decorate the line, so the last dotted number wins.
func ParseVersion(out string) (*semver.Version, error) {
	first, _, _ := strings.Cut(out, "\n")
	all := versionRe.FindAllStringSubmatch(first, -1)
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no version in %q", ErrVersion, first)
	}
	m := all[len(all)-1]
	v := m[1] + "." + m[2]
	if m[3] != "" {
		v += "." + m[3]
	}
	return semver.NewVersion(v)
}

// Version runs `gdb --version`.
func Version(ctx context.Context, path string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("run %s --version: %w", path, err)
	}
	return ParseVersion(string(out))
}

// CheckVersion verifies v satisfies constraint; empty means DefaultConstraint.
func CheckVersion(v *semver.Version, constraint string) error {
	if constraint == "" {
		constraint = DefaultConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("parse gdb constraint %q: %w", constraint, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: gdb %s does not satisfy %q", ErrVersion, v, constraint)
	}
	return nil
}

// HelperScript returns the python helper sourced into gdb.
func HelperScript() []byte {
	return helperScript
}

// WriteHelper stores the helper script in dir and returns its path.
func WriteHelper(dir string) (string, error) {
	f, err := os.CreateTemp(dir, "gdbw-helper-*.py")
	if err != nil {
		return "", fmt.Errorf("create helper: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(helperScript); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write helper: %w", err)
	}
	return f.Name(), nil
}

// Options describes how to start gdb.
type Options struct {
	Path   string
	Helper string   // script sourced before gdb reads its init files
	Env    []string // appended to the current environment
	Args   []string // passed through, e.g. the program to debug

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command builds the gdb command line without starting it. Cancelling ctx
// sends SIGTERM so gdb can clean up its inferior; SIGKILL follows after
// StopDelay.
func Command(ctx context.Context, opts Options) *exec.Cmd {
	args := []string{"-q"}
	if opts.Helper != "" {
		args = append(args, "-iex", "source "+opts.Helper)
	}
	args = append(args, opts.Args...)

	cmd := exec.CommandContext(ctx, opts.Path, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = StopDelay
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	return cmd
}

// Process is a running gdb.
type Process struct {
	cmd *exec.Cmd
}

// Start launches gdb.
func Start(ctx context.Context, opts Options) (*Process, error) {
	cmd := Command(ctx, opts)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start gdb: %w", err)
	}
	return &Process{cmd: cmd}, nil
}

// Pid returns gdb's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until gdb exits.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}

// Stop asks gdb to terminate. gdb's own cleanup kills the inferior it started.
func (p *Process) Stop() error {
	err := p.cmd.Process.Signal(syscall.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop gdb: %w", err)
	}
	return nil
}

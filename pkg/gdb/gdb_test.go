package gdb

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"GNU gdb (Ubuntu 12.1-0ubuntu1~22.04) 12.1\nCopyright (C) 2022", "12.1.0"},
		{"GNU gdb (GDB) Fedora Linux 13.2-3.fc38\n", "13.2.0"},
		{"GNU gdb (GDB) 14.2.90.20240526-git\n", "14.2.90"},
		{"GNU gdb 7.12.1\n", "7.12.1"},
	}
	for _, tt := range tests {
		v, err := ParseVersion(tt.out)
		require.NoError(t, err, tt.out)
		assert.Equal(t, tt.want, v.String(), tt.out)
	}

	_, err := ParseVersion("lldb-1500\n")
	assert.ErrorIs(t, err, ErrVersion)
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion(semver.MustParse("12.1"), ""))
	assert.NoError(t, CheckVersion(semver.MustParse("7.12.0"), DefaultConstraint))
	assert.ErrorIs(t, CheckVersion(semver.MustParse("7.6.1"), ""), ErrVersion)
	assert.NoError(t, CheckVersion(semver.MustParse("10.2"), ">= 10, < 15"))

	err := CheckVersion(semver.MustParse("10.2"), "newest")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVersion)
}

func TestWriteHelper(t *testing.T) {
	path, err := WriteHelper(t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".py"))

	dat, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, HelperScript(), dat)
	assert.Contains(t, string(dat), "GDBW_PIPES")
	assert.Contains(t, string(dat), "gdbw:prompt")
}

func TestCommand(t *testing.T) {
	cmd := Command(context.Background(), Options{
		Path:   "/usr/bin/gdb",
		Helper: "/tmp/gdbw-helper.py",
		Env:    []string{"GDBW_PIPES=/tmp/a /tmp/b"},
		Args:   []string{"--args", "./prog", "-v"},
	})
	assert.Equal(t, []string{"/usr/bin/gdb", "-q", "-iex", "source /tmp/gdbw-helper.py", "--args", "./prog", "-v"}, cmd.Args)
	assert.Equal(t, "GDBW_PIPES=/tmp/a /tmp/b", cmd.Env[len(cmd.Env)-1])
}

func TestLocate(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "no-such-gdb"))
	assert.Error(t, err)
}

// fakeGDB writes a shell script that records SIGTERM in $GDBW_MARKER and
// creates $GDBW_MARKER.ready once its trap is installed.
func fakeGDB(t *testing.T) (path, marker string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	dir := t.TempDir()
	path = filepath.Join(dir, "gdb")
	marker = filepath.Join(dir, "terminated")
	script := `#!/bin/sh
trap 'touch "$GDBW_MARKER"; exit 0' TERM
touch "$GDBW_MARKER.ready"
while true; do sleep 1 & wait $!; done
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path, marker
}

func startFake(ctx context.Context, t *testing.T) (*Process, string) {
	t.Helper()
	path, marker := fakeGDB(t)
	proc, err := Start(ctx, Options{Path: path, Env: []string{"GDBW_MARKER=" + marker}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := os.Stat(marker + ".ready")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	return proc, marker
}

func TestCancelTerminatesGracefully(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	proc, marker := startFake(ctx, t)

	cancel()
	proc.Wait()

	_, err := os.Stat(marker)
	assert.NoError(t, err, "gdb did not see SIGTERM")
}

func TestStop(t *testing.T) {
	proc, marker := startFake(context.Background(), t)

	require.NoError(t, proc.Stop())
	assert.NoError(t, proc.Wait())

	_, err := os.Stat(marker)
	assert.NoError(t, err, "gdb did not see SIGTERM")

	// already gone
	assert.NoError(t, proc.Stop())
}

// The helper must finish every message with its delimiter even when the
// pipe accepts only part of a write.
func TestHelperShortWrites(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("no python3")
	}
	dir := t.TempDir()
	helper, err := WriteHelper(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdb.py"), []byte("def write(s):\n    pass\n"), 0644))
	out := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(out, nil, 0644))

	driver := `import os, sys
real = os.write
os.write = lambda fd, b: real(fd, bytes(b[:7]))
ns = {}
exec(open(sys.argv[1]).read(), ns)
pipe = ns['Pipe'](sys.argv[2])
pipe.send('info registers all\n' + 'rax 0x0 0\n' * 20)
pipe.send('gdbw:prompt\n')
`
	cmd := exec.Command(python, "-c", driver, helper, out)
	cmd.Env = append(os.Environ(), "PYTHONPATH="+dir, "GDBW_PIPES=")
	msg, err := cmd.CombinedOutput()
	require.NoError(t, err, string(msg))

	dat, err := os.ReadFile(out)
	require.NoError(t, err)
	want := "info registers all\n" + strings.Repeat("rax 0x0 0\n", 20) + "\x00gdbw:prompt\n\x00"
	assert.Equal(t, want, string(dat))
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "gdb", cfg.GDB.Path)
	assert.Equal(t, ">= 7.12", cfg.GDB.MinVersion)
	assert.Equal(t, 64, cfg.Channel.Queue)
	assert.Equal(t, 50*time.Millisecond, cfg.Channel.RetryDelay)
	assert.Equal(t, 64, cfg.Poll.BacktraceDepth)
	assert.Equal(t, "all", cfg.Poll.Registers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Source.TabWidth)
	assert.Equal(t, 5, cfg.View.SourceOffset)
	assert.Zero(t, cfg.View.DisasmOffset)
	assert.Empty(t, cfg.Status.File)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdbw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gdb:
  path: /opt/gdb/bin/gdb
channel:
  retry_delay: 10ms
poll:
  registers: general
view:
  disasm_offset: 3
log:
  helper: true
`), 0644))

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/opt/gdb/bin/gdb", cfg.GDB.Path)
	assert.Equal(t, 10*time.Millisecond, cfg.Channel.RetryDelay)
	assert.Equal(t, "general", cfg.Poll.Registers)
	assert.Equal(t, 3, cfg.View.DisasmOffset)
	assert.True(t, cfg.Log.Helper)
	assert.Equal(t, 64, cfg.Poll.BacktraceDepth)
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("GDBW_POLL_BACKTRACE_DEPTH", "16")
	t.Setenv("GDBW_SOURCE_WATCH", "true")

	v := viper.New()
	setDefaults(v)
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Poll.BacktraceDepth)
	assert.True(t, cfg.Source.Watch)
}

func TestConfigExpandHome(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	v := viper.New()
	setDefaults(v)
	v.Set("status.file", "~/gdbw/status.txt")
	v.Set("record.file", "/tmp/session.rec")

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "gdbw", "status.txt"), cfg.Status.File)
	assert.Equal(t, "/tmp/session.rec", cfg.Record.File)
}

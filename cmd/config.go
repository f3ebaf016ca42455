/*
Copyright © 2021 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/hitzhangjie/gdbw/pkg/gdb"
)

// Config is the merged view of defaults, config file, env and flags.
type Config struct {
	GDB     GDBConfig     `mapstructure:"gdb"`
	Channel ChannelConfig `mapstructure:"channel"`
	Poll    PollConfig    `mapstructure:"poll"`
	Log     LogConfig     `mapstructure:"log"`
	Source  SourceConfig  `mapstructure:"source"`
	View    ViewConfig    `mapstructure:"view"`
	Record  FileConfig    `mapstructure:"record"`
	Status  FileConfig    `mapstructure:"status"`
}

type GDBConfig struct {
	Path       string `mapstructure:"path"`
	MinVersion string `mapstructure:"min_version"`
}

type ChannelConfig struct {
	Dir        string        `mapstructure:"dir"`
	Queue      int           `mapstructure:"queue"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type PollConfig struct {
	BacktraceDepth int    `mapstructure:"backtrace_depth"`
	Registers      string `mapstructure:"registers"`
}

type LogConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Helper bool   `mapstructure:"helper"`
}

type SourceConfig struct {
	Watch    bool `mapstructure:"watch"`
	TabWidth int  `mapstructure:"tab_width"`
}

type ViewConfig struct {
	SourceOffset int `mapstructure:"source_offset"`
	DisasmOffset int `mapstructure:"disasm_offset"`
}

type FileConfig struct {
	File string `mapstructure:"file"`
}

// setDefaults registers every key, which also makes each one reachable
// through GDBW_* environment variables.
func setDefaults(v *viper.Viper) {
	v.SetDefault("gdb.path", "gdb")
	v.SetDefault("gdb.min_version", gdb.DefaultConstraint)
	v.SetDefault("channel.dir", os.TempDir())
	v.SetDefault("channel.queue", 64)
	v.SetDefault("channel.retry_delay", 50*time.Millisecond)
	v.SetDefault("poll.backtrace_depth", 64)
	v.SetDefault("poll.registers", "all")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.helper", false)
	v.SetDefault("source.watch", false)
	v.SetDefault("source.tab_width", 4)
	v.SetDefault("view.source_offset", 5)
	v.SetDefault("view.disasm_offset", 0)
	v.SetDefault("record.file", "")
	v.SetDefault("status.file", "")

	v.SetEnvPrefix("GDBW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig decodes v and expands "~" in every path setting.
func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	for _, p := range []*string{
		&cfg.GDB.Path,
		&cfg.Channel.Dir,
		&cfg.Log.File,
		&cfg.Record.File,
		&cfg.Status.File,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return &cfg, nil
}

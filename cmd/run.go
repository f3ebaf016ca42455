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
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hitzhangjie/gdbw/pkg/channel"
	"github.com/hitzhangjie/gdbw/pkg/diag"
	"github.com/hitzhangjie/gdbw/pkg/gdb"
	"github.com/hitzhangjie/gdbw/pkg/session"
	"github.com/hitzhangjie/gdbw/pkg/target"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [-- gdb args...]",
	Short: "启动gdb并同步调试会话状态",
	Long: `Start gdb on this terminal with the gdbw helper loaded. Everything after
"--" is passed to gdb, e.g. gdbw run -- --args ./prog -v`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		log, closer, err := diag.New(diag.Options{File: cfg.Log.File, Level: cfg.Log.Level})
		if err != nil {
			return err
		}
		defer closer.Close()

		return runSession(cmd.Context(), cfg, args, log)
	},
}

func init() {
	runCmd.Flags().String("gdb", "", "gdb executable (default gdb on PATH)")
	runCmd.Flags().String("status-file", "", "dump every panel to this file after each update")
	runCmd.Flags().String("record", "", "record gdb's responses to this transcript file")
	runCmd.Flags().Bool("watch", false, "reload the source file when it changes on disk")

	viper.BindPFlag("gdb.path", runCmd.Flags().Lookup("gdb"))
	viper.BindPFlag("status.file", runCmd.Flags().Lookup("status-file"))
	viper.BindPFlag("record.file", runCmd.Flags().Lookup("record"))
	viper.BindPFlag("source.watch", runCmd.Flags().Lookup("watch"))

	rootCmd.AddCommand(runCmd)
}

func runSession(ctx context.Context, cfg *Config, args []string, log *slog.Logger) error {
	path, err := gdb.Locate(cfg.GDB.Path)
	if err != nil {
		return err
	}
	ver, err := gdb.Version(ctx, path)
	if err != nil {
		return err
	}
	if err := gdb.CheckVersion(ver, cfg.GDB.MinVersion); err != nil {
		return err
	}
	log.Info("using gdb", "path", path, "version", ver)

	duplex, err := channel.NewDuplex(cfg.Channel.Dir, cfg.Log.Helper,
		channel.WithLogger(log), channel.WithRetryDelay(cfg.Channel.RetryDelay))
	if err != nil {
		return fmt.Errorf("create channels: %w", err)
	}
	defer duplex.Close()

	if cfg.Record.File != "" {
		f, err := os.Create(cfg.Record.File)
		if err != nil {
			return fmt.Errorf("create transcript: %w", err)
		}
		defer f.Close()
		duplex.Responses.Apply(channel.WithRecorder(f))
	}

	helper, err := gdb.WriteHelper(cfg.Channel.Dir)
	if err != nil {
		return err
	}
	defer os.Remove(helper)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := duplex.Responses.Listen(ctx, cfg.Channel.Queue)
	if err != nil {
		return err
	}
	if duplex.Log != nil {
		logs, err := duplex.Log.Listen(ctx, cfg.Channel.Queue)
		if err != nil {
			return err
		}
		go diag.Relay(ctx, logs, log)
	}

	var watcher *session.SourceWatcher
	if cfg.Source.Watch {
		if watcher, err = session.NewSourceWatcher(log); err != nil {
			return err
		}
		defer watcher.Close()
	}

	osfs := afero.NewOsFs()
	sess := session.New(session.Config{
		Loader:       target.SourceLoader{Fs: osfs, TabWidth: cfg.Source.TabWidth},
		SourceOffset: cfg.View.SourceOffset,
		DisasmOffset: cfg.View.DisasmOffset,
		Logger:       log,
		Commander:    session.NewCommander(duplex.Commands, cfg.Poll.BacktraceDepth, cfg.Poll.Registers, log),
		Watcher:      watcher,
		Proc:         osfs,
	})
	if cfg.Status.File != "" {
		sess.Observe(statusWriter(osfs, cfg.Status.File, log))
	}

	proc, err := gdb.Start(ctx, gdb.Options{
		Path:   path,
		Helper: helper,
		Env:    []string{duplex.Env()},
		Args:   args,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return err
	}
	log.Info("gdb started", "pid", proc.Pid(), "pipes", duplex.Pipes())

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx, msgs) }()

	exited := make(chan error, 1)
	go func() { exited <- proc.Wait() }()

	var waitErr error
	select {
	case waitErr = <-exited:
	case <-ctx.Done():
		log.Info("stopping gdb", "pid", proc.Pid())
		if err := proc.Stop(); err != nil {
			log.Warn("stop gdb", "err", err)
		}
		waitErr = <-exited
	}
	cancel()
	<-done

	st := duplex.Responses.Stats()
	log.Info("gdb exited", "err", waitErr, "messages", st.Messages, "bytes", st.Bytes, "read_errors", st.ReadErrors)
	return nil
}

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

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hitzhangjie/gdbw/cmd/debug"
	"github.com/hitzhangjie/gdbw/pkg/diag"
	"github.com/hitzhangjie/gdbw/pkg/session"
	"github.com/hitzhangjie/gdbw/pkg/target"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <transcript>",
	Short: "回放录制的调试会话",
	Long: `Replay a transcript recorded with "gdbw run --record" in an interactive
shell, stepping from one gdb prompt to the next and inspecting each panel.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		ring := diag.NewRing(256)
		log, closer, err := diag.New(diag.Options{File: cfg.Log.File, Level: cfg.Log.Level, Ring: ring})
		if err != nil {
			return err
		}
		defer closer.Close()

		fs := afero.NewOsFs()
		msgs, err := debug.LoadTranscript(fs, args[0])
		if err != nil {
			return err
		}
		log.Info("transcript loaded", "path", args[0], "messages", len(msgs))

		sess := session.New(session.Config{
			Loader:       target.SourceLoader{Fs: fs, TabWidth: cfg.Source.TabWidth},
			SourceOffset: cfg.View.SourceOffset,
			DisasmOffset: cfg.View.DisasmOffset,
			Logger:       log,
		})

		replay := debug.NewReplay(sess, msgs)
		shell := debug.NewDebugShell(replay, ring, os.Stdout).AtExit(func() {
			fmt.Fprintln(os.Stdout, replay.Summary())
			log.Info("replay finished", "summary", replay.Summary())
		})
		fmt.Fprintf(os.Stdout, "%d messages, type 'help' for commands\n", len(msgs))
		return shell.Run()
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

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
	"bytes"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/hitzhangjie/gdbw/pkg/session"
)

// statusWriter rewrites path with every panel after each update. The text
// goes to a sibling file first and is renamed over path, so a reader
// tailing the file never sees half a dump.
func statusWriter(fs afero.Fs, path string, log *slog.Logger) session.Observer {
	tmp := path + ".tmp"
	return func(s *session.Session, d session.Domain) {
		if d == session.DomainPrompt {
			return
		}

		var buf bytes.Buffer
		if err := s.WriteStatus(&buf); err != nil {
			log.Warn("render status", "err", err)
			return
		}
		if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0644); err != nil {
			log.Warn("write status", "path", tmp, "err", err)
			return
		}
		if err := fs.Rename(tmp, path); err != nil {
			log.Warn("rename status", "path", path, "err", err)
		}
	}
}

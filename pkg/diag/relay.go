package diag

import (
	"context"
	"log/slog"
	"strings"
)

// Relay re-logs the helper's diagnostics, one record per non-empty line,
// tagged source=helper. It returns when msgs is closed or ctx is done.
func Relay(ctx context.Context, msgs <-chan string, log *slog.Logger) {
	helper := log.With("source", "helper")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			for _, line := range strings.Split(msg, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					helper.Debug(line)
				}
			}
		}
	}
}

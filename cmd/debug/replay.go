package debug

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/hitzhangjie/gdbw/pkg/channel"
	"github.com/hitzhangjie/gdbw/pkg/session"
)

// LoadTranscript reads a file written by `gdbw run --record` and splits it
// into the recorded messages.
func LoadTranscript(fs afero.Fs, path string) ([]string, error) {
	dat, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var f channel.Framer
	msgs := f.Feed(dat)
	if f.Pending() != 0 {
		return nil, fmt.Errorf("read transcript: %d trailing bytes without terminator", f.Pending())
	}
	return msgs, nil
}

// Replay feeds recorded messages into a session one gdb stop at a time.
type Replay struct {
	sess *session.Session
	msgs []string
	pos  int
}

// NewReplay prepares msgs for sess.
func NewReplay(sess *session.Session, msgs []string) *Replay {
	return &Replay{sess: sess, msgs: msgs}
}

// Session returns the session being replayed into.
func (r *Replay) Session() *session.Session {
	return r.sess
}

func isPrompt(msg string) bool {
	cmd, _ := session.SplitResponse(msg)
	return cmd == session.PromptTag
}

// Next applies one prompt and the responses that follow it, up to the next
// prompt. It returns how many messages were applied.
func (r *Replay) Next() int {
	n := 0
	for r.pos < len(r.msgs) {
		if n > 0 && isPrompt(r.msgs[r.pos]) {
			break
		}
		r.sess.Handle(r.msgs[r.pos])
		r.pos++
		n++
	}
	return n
}

// Continue applies everything left.
func (r *Replay) Continue() int {
	n := len(r.msgs) - r.pos
	for ; r.pos < len(r.msgs); r.pos++ {
		r.sess.Handle(r.msgs[r.pos])
	}
	return n
}

// Position returns how many messages were applied and the total.
func (r *Replay) Position() (int, int) {
	return r.pos, len(r.msgs)
}

// Summary describes how far the replay got.
func (r *Replay) Summary() string {
	return fmt.Sprintf("replayed %d/%d messages, %d prompts, %d runs",
		r.pos, len(r.msgs), r.sess.Prompts(), r.sess.Generation())
}

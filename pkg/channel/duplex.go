package channel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnvPipes is the environment variable the helper reads its pipe paths from.
const EnvPipes = "GDBW_PIPES"

// Duplex is the set of pipes shared with one helper instance: commands flow
// to gdb, responses flow back, and the optional log pipe carries the
// helper's own diagnostics.
type Duplex struct {
	ID        string
	Commands  *Channel
	Responses *Channel
	Log       *Channel
}

// NewDuplex creates the pipes under dir. Names carry a fresh uuid so several
// sessions can share a directory.
func NewDuplex(dir string, withLog bool, opts ...Option) (*Duplex, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	d := &Duplex{ID: uuid.NewString()}

	name := func(kind string) string {
		return filepath.Join(dir, fmt.Sprintf("gdbw-%s-%s", d.ID, kind))
	}

	var err error
	if d.Commands, err = Create(name("cmd"), opts...); err != nil {
		return nil, err
	}
	if d.Responses, err = Create(name("resp"), opts...); err != nil {
		d.Close()
		return nil, err
	}
	if withLog {
		if d.Log, err = Create(name("log"), opts...); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// Pipes returns the value of EnvPipes: commands, responses and, when
// present, log paths separated by spaces.
func (d *Duplex) Pipes() string {
	paths := []string{d.Commands.Path(), d.Responses.Path()}
	if d.Log != nil {
		paths = append(paths, d.Log.Path())
	}
	return strings.Join(paths, " ")
}

// Env returns the EnvPipes assignment to add to gdb's environment.
func (d *Duplex) Env() string {
	return EnvPipes + "=" + d.Pipes()
}

// Close closes every pipe of the set.
func (d *Duplex) Close() error {
	var errs []error
	for _, c := range []*Channel{d.Commands, d.Responses, d.Log} {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

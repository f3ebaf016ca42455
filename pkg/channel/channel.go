// Package channel implements the NUL-framed named pipes gdbw uses to talk to
// its helper script running inside gdb.
package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

const readChunk = 4096

var (
	// ErrClosed is returned by operations on a closed channel.
	ErrClosed = errors.New("channel closed")
	// ErrListening is returned when Listen is called twice.
	ErrListening = errors.New("channel already listening")
)

// Stats is a snapshot of a channel's counters.
type Stats struct {
	Messages   int64
	Bytes      int64
	ReadErrors int64
	Sent       int64
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger used for transport errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.log = l }
}

// WithRetryDelay sets how long the listener waits after a failed read.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) { c.retry = d }
}

// WithRecorder tees every inbound message, framed, to w.
func WithRecorder(w io.Writer) Option {
	return func(c *Channel) { c.record = w }
}

// Channel is one named pipe. A process either sends to it or listens on it.
type Channel struct {
	path   string
	log    *slog.Logger
	retry  time.Duration
	record io.Writer

	mu sync.Mutex // guards w and r
	w  *os.File
	r  *os.File

	listening atomic.Bool
	closed    atomic.Bool
	done      chan struct{} // closed by Close

	messages atomic.Int64
	bytes    atomic.Int64
	readErrs atomic.Int64
	sent     atomic.Int64
}

// Create makes the FIFO at path. An existing FIFO is reused.
func Create(path string, opts ...Option) (*Channel, error) {
	if err := unix.Mkfifo(path, 0600); err != nil && !errors.Is(err, unix.EEXIST) {
		return nil, fmt.Errorf("mkfifo %s: %w", path, err)
	}

	c := &Channel{
		path:  path,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		retry: 50 * time.Millisecond,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Apply changes options of a channel that is not listening yet.
func (c *Channel) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Path returns the FIFO path.
func (c *Channel) Path() string {
	return c.path
}

// Send writes msg followed by the delimiter. The write end is opened on the
// first call; opening read-write never blocks waiting for a reader.
func (c *Channel) Send(msg string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Close may have run while we waited for the lock
	if c.closed.Load() {
		return ErrClosed
	}
	if c.w == nil {
		f, err := os.OpenFile(c.path, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("open %s for write: %w", c.path, err)
		}
		c.w = f
	}
	if _, err := c.w.Write(Frame(msg)); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	c.sent.Inc()
	return nil
}

// Listen starts the reader goroutine and returns the channel it delivers
// messages on, in arrival order. The returned channel holds at most queue
// messages and is closed when ctx is done or the Channel is closed.
func (c *Channel) Listen(ctx context.Context, queue int) (<-chan string, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if !c.listening.CAS(false, true) {
		return nil, ErrListening
	}

	// read-write keeps a writer attached, so the FIFO never reports EOF
	// when the helper restarts.
	f, err := os.OpenFile(c.path, os.O_RDWR, 0)
	if err != nil {
		c.listening.Store(false)
		return nil, fmt.Errorf("open %s for read: %w", c.path, err)
	}
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		f.Close()
		return nil, ErrClosed
	}
	c.r = f
	c.mu.Unlock()

	if queue <= 0 {
		queue = 1
	}
	out := make(chan string, queue)

	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-c.done:
		}
	}()
	go c.listen(ctx, f, out)

	return out, nil
}

func (c *Channel) listen(ctx context.Context, f io.Reader, out chan<- string) {
	defer close(out)

	var (
		framer Framer
		buf    = make([]byte, readChunk)
	)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			c.bytes.Add(int64(n))
			for _, msg := range framer.Feed(buf[:n]) {
				c.messages.Inc()
				c.tee(msg)
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrClosed) || ctx.Err() != nil || c.closed.Load() {
			return
		}

		c.readErrs.Inc()
		c.log.Debug("read channel", "path", c.path, "err", err)
		select {
		case <-time.After(c.retry):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Channel) tee(msg string) {
	if c.record == nil {
		return
	}
	if _, err := c.record.Write(Frame(msg)); err != nil {
		c.log.Warn("record message", "path", c.path, "err", err)
	}
}

// Stats returns the current counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Messages:   c.messages.Load(),
		Bytes:      c.bytes.Load(),
		ReadErrors: c.readErrs.Load(),
		Sent:       c.sent.Load(),
	}
}

// Close closes both ends and removes the FIFO. Closing twice is a no-op.
func (c *Channel) Close() error {
	if !c.closed.CAS(false, true) {
		return nil
	}

	close(c.done)

	var errs []error

	c.mu.Lock()
	if c.w != nil {
		errs = append(errs, c.w.Close())
		c.w = nil
	}
	if c.r != nil {
		if err := c.r.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

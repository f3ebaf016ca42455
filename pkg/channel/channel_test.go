package channel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramerFragmentation(t *testing.T) {
	var f Framer
	assert.Empty(t, f.Feed([]byte("info fr")))
	assert.Equal(t, 7, f.Pending())
	assert.Equal(t, []string{"info frame\nStack level 0"}, f.Feed([]byte("ame\nStack level 0\x00bt")))
	assert.Equal(t, []string{"bt"}, f.Feed([]byte{0}))
	assert.Zero(t, f.Pending())
}

func TestFramerDropsEmpty(t *testing.T) {
	var f Framer
	assert.Equal(t, []string{"a", "b"}, f.Feed([]byte("\x00a\x00\x00\x00b\x00")))
}

func TestFramerRoundTrip(t *testing.T) {
	msgs := []string{"info threads\n  Id   Target Id\n", "gdbw:prompt\n", "ünïcode $ # \t"}

	var wire []byte
	for _, m := range msgs {
		wire = append(wire, Frame(m)...)
	}

	// deliver one byte at a time to exercise every split point
	var (
		f   Framer
		got []string
	)
	for i := range wire {
		got = append(got, f.Feed(wire[i:i+1])...)
	}
	assert.Equal(t, msgs, got)
}

func receive(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case msg, ok := <-ch:
			require.True(t, ok, "channel closed early")
			got = append(got, msg)
		case <-timeout:
			t.Fatalf("received %d of %d messages", len(got), n)
		}
	}
	return got
}

func TestChannelSendListen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	c, err := Create(path)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := c.Listen(ctx, 8)
	require.NoError(t, err)

	_, err = c.Listen(ctx, 8)
	assert.ErrorIs(t, err, ErrListening)

	require.NoError(t, c.Send("info frame\nStack level 0, frame at 0x7ffe:"))
	require.NoError(t, c.Send(""))
	require.NoError(t, c.Send("gdbw:prompt\n"))

	got := receive(t, msgs, 2)
	assert.Equal(t, []string{"info frame\nStack level 0, frame at 0x7ffe:", "gdbw:prompt\n"}, got)

	stats := c.Stats()
	assert.EqualValues(t, 2, stats.Messages)
	assert.EqualValues(t, 3, stats.Sent)
}

func TestChannelCancelClosesStream(t *testing.T) {
	c, err := Create(filepath.Join(t.TempDir(), "pipe"))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := c.Listen(ctx, 1)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestChannelRecorder(t *testing.T) {
	var rec syncBuffer
	c, err := Create(filepath.Join(t.TempDir(), "pipe"), WithRecorder(&rec))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := c.Listen(ctx, 4)
	require.NoError(t, err)

	require.NoError(t, c.Send("a"))
	require.NoError(t, c.Send("b"))
	receive(t, msgs, 2)

	assert.Equal(t, "a\x00b\x00", rec.String())
}

func TestChannelClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	c, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, c.Send("x"))

	require.NoError(t, c.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send("y"), ErrClosed)
}

func TestChannelCloseEndsStream(t *testing.T) {
	c, err := Create(filepath.Join(t.TempDir(), "pipe"))
	require.NoError(t, err)

	msgs, err := c.Listen(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	_, err = c.Listen(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestChannelSendRacingClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := Create(filepath.Join(t.TempDir(), "pipe"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := c.Send("x"); err != nil {
				assert.ErrorIs(t, err, ErrClosed)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Close())
		}()
		wg.Wait()

		// a send that lost the race must not leave the pipe open
		c.mu.Lock()
		assert.Nil(t, c.w)
		c.mu.Unlock()
	}
}

// flakyReader fails once, then yields data, then reports the file closed.
type flakyReader struct {
	steps []func(p []byte) (int, error)
}

func (r *flakyReader) Read(p []byte) (int, error) {
	if len(r.steps) == 0 {
		return 0, os.ErrClosed
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	return step(p)
}

func TestListenerSurvivesReadError(t *testing.T) {
	c := &Channel{
		path:  "test",
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		retry: time.Millisecond,
		done:  make(chan struct{}),
	}
	r := &flakyReader{steps: []func(p []byte) (int, error){
		func(p []byte) (int, error) { return 0, errors.New("resource temporarily unavailable") },
		func(p []byte) (int, error) { return copy(p, "a\x00b"), nil },
		func(p []byte) (int, error) { return 0, errors.New("interrupted system call") },
		func(p []byte) (int, error) { return copy(p, "\x00"), nil },
	}}

	out := make(chan string, 4)
	c.listen(context.Background(), r, out)

	var got []string
	for msg := range out {
		got = append(got, msg)
	}
	assert.Equal(t, []string{"a", "b"}, got)

	stats := c.Stats()
	assert.EqualValues(t, 2, stats.ReadErrors)
	assert.EqualValues(t, 2, stats.Messages)
}

func TestCreateReusesFifo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	a, err := Create(path)
	require.NoError(t, err)
	b, err := Create(path)
	require.NoError(t, err)
	assert.Equal(t, a.Path(), b.Path())
	assert.NoError(t, b.Close())
	assert.NoError(t, a.Close())
}

func TestDuplex(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDuplex(dir, true)
	require.NoError(t, err)

	fields := strings.Fields(d.Pipes())
	require.Len(t, fields, 3)
	for _, p := range fields {
		assert.True(t, strings.HasPrefix(p, filepath.Join(dir, "gdbw-"+d.ID)))
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, fi.Mode()&os.ModeNamedPipe)
	}
	assert.True(t, strings.HasPrefix(d.Env(), EnvPipes+"="))

	require.NoError(t, d.Close())
	for _, p := range fields {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}

	other, err := NewDuplex(dir, false)
	require.NoError(t, err)
	defer other.Close()
	assert.NotEqual(t, d.ID, other.ID)
	assert.Len(t, strings.Fields(other.Pipes()), 2)
}

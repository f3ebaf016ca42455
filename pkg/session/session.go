// Package session keeps the debugger state gdbw derives from gdb's responses.
//
// A Session is owned by a single goroutine: Run consumes inbound responses,
// routes them to the domain parsers, replaces the matching snapshot and then
// notifies observers. Nothing in this package locks session data.
package session

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/atomic"

	"github.com/hitzhangjie/gdbw/pkg/diag"
	"github.com/hitzhangjie/gdbw/pkg/target"
	"github.com/hitzhangjie/gdbw/pkg/view"
)

// Domain names one kind of state refreshed by the poll.
type Domain string

const (
	DomainPrompt      Domain = "prompt"
	DomainThreads     Domain = "threads"
	DomainFrame       Domain = "frame"
	DomainInferior    Domain = "inferior"
	DomainBreakpoints Domain = "breakpoints"
	DomainSource      Domain = "source"
	DomainArgs        Domain = "args"
	DomainLocals      Domain = "locals"
	DomainDisassembly Domain = "disassembly"
	DomainCallStack   Domain = "callstack"
	DomainRegisters   Domain = "registers"
)

// PromptTag is the message the helper sends each time gdb shows its prompt.
const PromptTag = "gdbw:prompt"

// Observer is notified on the session goroutine after a domain changed.
type Observer func(s *Session, d Domain)

// Config wires a Session.
type Config struct {
	Loader       target.SourceLoader
	SourceOffset int
	DisasmOffset int
	Logger       *slog.Logger
	// Commander is asked to poll on every prompt; nil when replaying.
	Commander *Commander
	// Watcher reloads the source text when it changes on disk; optional.
	Watcher *SourceWatcher
	// Proc is where /proc is read to name a new inferior; nil skips it.
	Proc afero.Fs
}

// Session is the aggregate of every snapshot.
type Session struct {
	cfg   Config
	log   *slog.Logger
	demux *Demux

	Inferior   string // pid of the running inferior, empty before the first run
	Command    string // command name of the inferior, when known
	Frame      string // address of the selected frame
	FrameLevel int

	Breakpoints *target.BreakpointTable
	Stack       *target.CallStack
	Disassembly *target.Disassembly
	Threads     *target.ThreadList
	Source      *target.Source
	Args        *target.LineItems
	Locals      *target.LineItems
	Registers   *target.LineItems

	viewports  map[Domain]*view.Viewport
	observers  []Observer
	generation atomic.Int64
	prompts    atomic.Int64
}

// New creates an empty session.
func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = diag.Discard()
	}
	s := &Session{
		cfg:         cfg,
		log:         cfg.Logger,
		FrameLevel:  -1,
		Breakpoints: target.NewBreakpointTable(),
		Source:      target.NewSource(),
		viewports:   make(map[Domain]*view.Viewport),
	}

	s.demux = NewDemux(cfg.Logger)
	s.demux.Handle(PromptTag, DomainPrompt, s.onPrompt)
	s.demux.Handle("info threads", DomainThreads, s.onThreads)
	s.demux.Handle("info frame", DomainFrame, s.onFrame)
	s.demux.Handle("info inferiors", DomainInferior, s.onInferiors)
	s.demux.Handle("info breakpoints", DomainBreakpoints, s.onBreakpoints)
	s.demux.Handle("info source", DomainSource, s.onSourceFile)
	s.demux.Handle("info line", DomainSource, s.onSourceLine)
	s.demux.Handle("info args", DomainArgs, s.onArgs)
	s.demux.Handle("info locals", DomainLocals, s.onLocals)
	s.demux.Handle("disassemble", DomainDisassembly, s.onDisassemble)
	s.demux.Handle("bt ", DomainCallStack, s.onBacktrace)
	s.demux.Handle("info registers", DomainRegisters, s.onRegisters)
	return s
}

// Observe registers fn for change notifications.
func (s *Session) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// HasBreakpoint reports whether loc, an address or file:line, carries a
// breakpoint.
func (s *Session) HasBreakpoint(loc string) bool {
	return s.Breakpoints.Has(loc)
}

// Loader returns the source loader the session reads files with.
func (s *Session) Loader() target.SourceLoader {
	return s.cfg.Loader
}

// Generation counts inferior (re)runs seen so far.
func (s *Session) Generation() int64 {
	return s.generation.Load()
}

// Prompts counts prompt notifications seen so far.
func (s *Session) Prompts() int64 {
	return s.prompts.Load()
}

// SetViewport records the visible window of a domain's panel.
func (s *Session) SetViewport(d Domain, top, height int) {
	s.viewports[d] = &view.Viewport{Top: top, Height: height}
}

// Viewport returns the visible window of d, if one was set.
func (s *Session) Viewport(d Domain) (view.Viewport, bool) {
	vp, ok := s.viewports[d]
	if !ok {
		return view.Viewport{}, false
	}
	return *vp, true
}

// follow scrolls d's viewport to where cursor placed it.
func (s *Session) follow(d Domain, c view.Cursor) {
	if vp, ok := s.viewports[d]; ok && c.Move {
		vp.Top = c.Top
	}
}

// Handle processes one inbound message and notifies observers when a
// domain was updated.
func (s *Session) Handle(msg string) (Domain, bool) {
	d, ok := s.demux.Dispatch(msg)
	if ok {
		s.notify(d)
	}
	return d, ok
}

func (s *Session) notify(d Domain) {
	for _, fn := range s.observers {
		fn(s, d)
	}
}

// Run consumes msgs until it is closed or ctx is done.
func (s *Session) Run(ctx context.Context, msgs <-chan string) error {
	var changed <-chan string
	if s.cfg.Watcher != nil {
		changed = s.cfg.Watcher.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			s.Handle(msg)
		case path, ok := <-changed:
			if !ok {
				changed = nil
				continue
			}
			s.reloadSource(path)
		}
	}
}

// reset drops every domain that belongs to the previous run.
func (s *Session) reset() {
	s.Breakpoints = target.NewBreakpointTable()
	s.Source = target.NewSource()
	s.Disassembly = nil
	s.Registers = nil
	s.Args = nil
	s.Locals = nil
	s.Frame = ""
}

func (s *Session) onPrompt(string) error {
	s.prompts.Inc()
	if s.cfg.Commander != nil {
		s.cfg.Commander.Poll()
	}
	return nil
}

func (s *Session) onThreads(output string) error {
	tl, err := target.ParseThreads(output)
	if err != nil {
		return err
	}
	s.Threads = tl
	return nil
}

func (s *Session) onFrame(output string) error {
	info := target.ParseFrameInfo(output)
	s.FrameLevel = info.Level
	if info.Address != s.Frame {
		s.Frame = info.Address
		s.Args = nil
		s.Locals = nil
	}
	return nil
}

func (s *Session) onInferiors(output string) error {
	pid, ok := target.ParseInferior(output)
	if !ok || pid == s.Inferior {
		return nil
	}
	s.log.Info("inferior started", "pid", pid, "previous", s.Inferior)
	s.Inferior = pid
	s.Command = ""
	if s.cfg.Proc != nil {
		comm, err := target.ProcComm(s.cfg.Proc, pid)
		if err != nil {
			s.log.Debug("read inferior command", "pid", pid, "err", err)
		}
		s.Command = comm
	}
	s.reset()
	s.generation.Inc()
	return nil
}

func (s *Session) onBreakpoints(output string) error {
	t, err := target.ParseBreakpoints(s.Breakpoints, output)
	if err != nil {
		return err
	}
	s.Breakpoints = t
	return nil
}

func (s *Session) onSourceFile(output string) error {
	src, err := target.ParseSourceFile(s.Source, output, s.cfg.Loader)
	if err != nil {
		return err
	}
	if src.Fresh {
		s.follow(DomainSource, src.Cursor)
		if w := s.cfg.Watcher; w != nil && src.Path != "" {
			if err := w.Follow(src.Path); err != nil {
				s.log.Warn("watch source", "path", src.Path, "err", err)
			}
		}
	}
	s.Source = src
	return nil
}

func (s *Session) onSourceLine(output string) error {
	src, err := target.ParseSourceLine(s.Source, output)
	if err != nil {
		return err
	}
	if src == s.Source {
		return nil
	}
	src.Cursor = view.Place(s.viewports[DomainSource], src.Current, src.Fresh, s.cfg.SourceOffset)
	src.Fresh = false
	s.follow(DomainSource, src.Cursor)
	s.Source = src
	return nil
}

func (s *Session) reloadSource(path string) {
	if s.Source == nil || s.Source.Path == "" || filepath.Clean(path) != filepath.Clean(s.Source.Path) {
		return
	}
	src, err := s.Source.Reload(s.cfg.Loader)
	if err != nil {
		s.log.Warn("reload source", "path", path, "err", err)
		return
	}
	s.Source = src
	s.notify(DomainSource)
}

func (s *Session) onArgs(output string) error {
	s.Args = target.ParseLineItems(s.Args, output)
	return nil
}

func (s *Session) onLocals(output string) error {
	s.Locals = target.ParseLineItems(s.Locals, output)
	return nil
}

func (s *Session) onRegisters(output string) error {
	s.Registers = target.ParseLineItems(s.Registers, output)
	return nil
}

func (s *Session) onDisassemble(output string) error {
	d, err := target.ParseDisassembly(output, s.Breakpoints)
	if err != nil {
		return err
	}
	d.Cursor = view.Place(s.viewports[DomainDisassembly], d.Current, false, s.cfg.DisasmOffset)
	s.follow(DomainDisassembly, d.Cursor)
	s.Disassembly = d
	return nil
}

func (s *Session) onBacktrace(output string) error {
	cs, err := target.ParseBacktrace(output, s.FrameLevel)
	if err != nil {
		return err
	}
	s.Stack = cs
	return nil
}

// Package forwarding routes script print results to their configured output
// sources. A source is a file, a named pipe, a TCP endpoint, a loaded-module
// callback, or a SQLite event store. Sources are registered with a manager,
// opened, bound to event tags, and written best-effort: one failing sink
// never stops delivery to the others, and network writes carry a deadline so
// the engine is never blocked indefinitely.
package forwarding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("tracescript.forwarding")

// SourceType identifies the kind of output source.
type SourceType int

const (
	SourceFile SourceType = iota
	SourceNamedPipe
	SourceTCP
	SourceModule
	SourceStore
)

// String returns a human-readable source type name.
func (t SourceType) String() string {
	switch t {
	case SourceFile:
		return "file"
	case SourceNamedPipe:
		return "namedpipe"
	case SourceTCP:
		return "tcp"
	case SourceModule:
		return "module"
	case SourceStore:
		return "store"
	default:
		return fmt.Sprintf("SourceType(%d)", int(t))
	}
}

// SourceState tracks the open/close lifecycle of a source.
type SourceState int

const (
	StateNotOpened SourceState = iota
	StateOpened
	StateClosed
)

// Status results for source lifecycle operations.
var (
	ErrAlreadyOpened = errors.New("output source already opened")
	ErrAlreadyClosed = errors.New("output source already closed")
	ErrNotOpened     = errors.New("output source not opened")
	ErrUnknownSource = errors.New("unknown output source")
)

// writeTimeout bounds a single network write.
const writeTimeout = 2 * time.Second

// ModuleFunc is a loaded-module callback sink.
type ModuleFunc func(tag uint64, message string) error

// Source is one registered output destination.
type Source struct {
	tag   uint64
	typ   SourceType
	state SourceState

	w     io.WriteCloser // file, named pipe, tcp
	bw    *bufio.Writer
	conn  net.Conn // tcp only, for write deadlines
	fn    ModuleFunc
	store *EventStore

	mu sync.Mutex
}

// Tag returns the source's allocated tag.
func (s *Source) Tag() uint64 { return s.tag }

// Type returns the source's kind.
func (s *Source) Type() SourceType { return s.typ }

// write delivers one message to this source. The immediate flag flushes
// buffered writers; otherwise output is batched until flush or close.
func (s *Source) write(tag uint64, immediate bool, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpened {
		return fmt.Errorf("%w: source %d", ErrNotOpened, s.tag)
	}

	switch s.typ {
	case SourceModule:
		return s.fn(tag, message)
	case SourceStore:
		return s.store.Append(tag, message)
	case SourceTCP:
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := s.bw.WriteString(message + "\n"); err != nil {
			return err
		}
		return s.bw.Flush()
	default:
		if _, err := s.bw.WriteString(message + "\n"); err != nil {
			return err
		}
		if immediate {
			return s.bw.Flush()
		}
		return nil
	}
}

// Manager owns the registered sources and the event-tag bindings.
type Manager struct {
	nextTag atomic.Uint64

	mu       sync.Mutex
	sources  map[uint64]*Source
	bindings map[uint64][]uint64 // event tag -> source tags

	// Default receives messages for event tags with no bound source.
	// Nil drops them.
	Default io.Writer
}

// NewManager creates an empty source registry writing unbound events to
// stdout.
func NewManager() *Manager {
	return &Manager{
		sources:  make(map[uint64]*Source),
		bindings: make(map[uint64][]uint64),
		Default:  os.Stdout,
	}
}

// NewOutputSourceTag allocates the next source tag.
func (m *Manager) NewOutputSourceTag() uint64 {
	return m.nextTag.Add(1)
}

func (m *Manager) register(s *Source) *Source {
	s.tag = m.NewOutputSourceTag()
	m.mu.Lock()
	m.sources[s.tag] = s
	m.mu.Unlock()
	return s
}

// RegisterFile registers a file source, creating or appending to path.
func (m *Manager) RegisterFile(path string) (*Source, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening file source: %w", err)
	}
	return m.register(&Source{typ: SourceFile, w: f, bw: bufio.NewWriter(f)}), nil
}

// RegisterNamedPipe registers a named pipe (FIFO) source at path.
func (m *Manager) RegisterNamedPipe(path string) (*Source, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening named pipe source: %w", err)
	}
	return m.register(&Source{typ: SourceNamedPipe, w: f, bw: bufio.NewWriter(f)}), nil
}

// RegisterTCP registers a TCP source connected to addr.
func (m *Manager) RegisterTCP(addr string) (*Source, error) {
	conn, err := net.DialTimeout("tcp", addr, writeTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting tcp source: %w", err)
	}
	return m.register(&Source{typ: SourceTCP, w: conn, conn: conn, bw: bufio.NewWriter(conn)}), nil
}

// RegisterModule registers a loaded-module callback source.
func (m *Manager) RegisterModule(fn ModuleFunc) (*Source, error) {
	if fn == nil {
		return nil, fmt.Errorf("module source requires a callback")
	}
	return m.register(&Source{typ: SourceModule, fn: fn}), nil
}

// RegisterStore registers a SQLite event store source at path.
func (m *Manager) RegisterStore(path string) (*Source, error) {
	st, err := NewEventStore(path)
	if err != nil {
		return nil, err
	}
	return m.register(&Source{typ: SourceStore, store: st}), nil
}

func (m *Manager) source(sourceTag uint64) (*Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[sourceTag]
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownSource, sourceTag)
	}
	return s, nil
}

// Open transitions a registered source to the opened state.
func (m *Manager) Open(sourceTag uint64) error {
	s, err := m.source(sourceTag)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return fmt.Errorf("%w: source %d", ErrAlreadyClosed, sourceTag)
	case StateOpened:
		return fmt.Errorf("%w: source %d", ErrAlreadyOpened, sourceTag)
	}
	s.state = StateOpened
	return nil
}

// Close flushes and closes a source. Closing twice is an error.
func (m *Manager) Close(sourceTag uint64) error {
	s, err := m.source(sourceTag)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("%w: source %d", ErrAlreadyClosed, sourceTag)
	}
	s.state = StateClosed

	var errs []error
	if s.bw != nil {
		errs = append(errs, s.bw.Flush())
	}
	if s.w != nil {
		errs = append(errs, s.w.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// CloseAll closes every source that is still open.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	tags := make([]uint64, 0, len(m.sources))
	for tag := range m.sources {
		tags = append(tags, tag)
	}
	m.mu.Unlock()

	for _, tag := range tags {
		if err := m.Close(tag); err != nil && !errors.Is(err, ErrAlreadyClosed) {
			log.Warningf("closing source %d: %v", tag, err)
		}
	}
}

// Bind routes an event tag to a source.
func (m *Manager) Bind(eventTag, sourceTag uint64) error {
	if _, err := m.source(sourceTag); err != nil {
		return err
	}
	m.mu.Lock()
	m.bindings[eventTag] = append(m.bindings[eventTag], sourceTag)
	m.mu.Unlock()
	return nil
}

// Deliver implements the engine's output sink: fan the message out to every
// source bound to the event tag. Delivery is best-effort; per-sink failures
// are logged and do not stop the remaining sinks.
func (m *Manager) Deliver(tag uint64, immediate bool, message string) error {
	m.mu.Lock()
	bound := append([]uint64(nil), m.bindings[tag]...)
	m.mu.Unlock()

	if len(bound) == 0 {
		if m.Default != nil {
			_, err := fmt.Fprintln(m.Default, message)
			return err
		}
		return nil
	}

	var errs []error
	for _, sourceTag := range bound {
		s, err := m.source(sourceTag)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.write(tag, immediate, message); err != nil {
			log.Warningf("delivering event %d to %s source %d: %v", tag, s.typ, sourceTag, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package docnet owns the client side of a document-server connection: one
// persistent TCP stream, a line framer for inbound bytes, and a positional
// FIFO that pairs each reply line with the oldest unanswered request.
package docnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"docdb-go/docp"
)

// Port is the fixed port the document server listens on. The protocol pins
// it, so it is deliberately not a configuration knob; only the host varies.
const Port = 8191

// DefaultHost is dialed when no host is given.
const DefaultHost = "127.0.0.1"

const readBufferSize = 4 * 1024

// State is the lifecycle phase of a session's connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConnected is returned by Dispatch when the session is not
	// connected. Nothing is written and nothing is queued.
	ErrNotConnected = errors.New("docnet: not connected")

	// ErrConnClosed settles entries that were still pending when the
	// connection became unusable.
	ErrConnClosed = errors.New("docnet: connection closed")

	// ErrServerUnreachable wraps a refused dial: nothing is listening on
	// the target, most often because the server process is not running.
	ErrServerUnreachable = errors.New("docnet: server unreachable")
)

// DialFunc opens the raw transport. Tests substitute it to reach in-process
// servers; outside tests the address is always host:Port.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger replaces the session's diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithDialer replaces the transport dialer. This is a seam for tests and
// tunnels; the protocol port stays fixed either way.
func WithDialer(dial DialFunc) Option {
	return func(s *Session) { s.dial = dial }
}

// Session is a single connection to a document server together with the two
// pieces of state the protocol requires: the partial-line read buffer and
// the FIFO of pending requests. One mutex guards all of it. The read loop is
// the only producer of inbound events; dispatches come in from caller
// goroutines and append to the wire and the queue atomically, so queue order
// always equals wire order.
type Session struct {
	host string
	dial DialFunc
	log  *zap.Logger

	mu     sync.Mutex
	conn   net.Conn
	state  State
	framer lineFramer
	queue  pendingQueue
	cause  error
}

// NewSession prepares a session for host. An empty host means DefaultHost.
// The session does not touch the network until Connect.
func NewSession(host string, opts ...Option) *Session {
	if host == "" {
		host = DefaultHost
	}
	s := &Session{
		host:  host,
		state: StateDisconnected,
	}
	var d net.Dialer
	s.dial = d.DialContext
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = defaultLogger()
	}
	return s
}

var newDefaultLogger = sync.OnceValue(func() *zap.Logger {
	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return log
})

func defaultLogger() *zap.Logger { return newDefaultLogger() }

// Addr returns the host:port the session targets.
func (s *Session) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(Port))
}

// Connect dials the server and starts the read loop. A refused connection is
// reported as ErrServerUnreachable and logged with a hint, since it almost
// always means the server process is not running.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("docnet: connect in state %s", state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.dial(ctx, "tcp", s.Addr())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		// Closed while the dial was in flight.
		if conn != nil {
			conn.Close()
		}
		return fmt.Errorf("docnet: session closed during connect")
	}
	if err != nil {
		s.state = StateDisconnected
		if errors.Is(err, syscall.ECONNREFUSED) {
			s.log.Warn("connection refused: is the document server running?",
				zap.String("addr", s.Addr()),
				zap.Error(err))
			return fmt.Errorf("%w: %w", ErrServerUnreachable, err)
		}
		return fmt.Errorf("docnet: connect %s: %w", s.Addr(), err)
	}

	s.conn = conn
	s.state = StateConnected
	s.log.Info("connected", zap.String("addr", s.Addr()))
	go s.readLoop(conn)
	return nil
}

// Dispatch serializes req, appends an entry to the pending queue, and writes
// the line to the socket, all under the session lock. The entry is enqueued
// only after the connected check passes and is removed again if the write
// fails, so the queue never holds a request that was not put on the wire.
func (s *Session) Dispatch(req *docp.Request) (*Pending, error) {
	line, err := docp.Marshal(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected {
		return nil, fmt.Errorf("%w (state %s)", ErrNotConnected, s.state)
	}

	p := newPending()
	s.queue.push(p)
	if _, err := s.conn.Write(line); err != nil {
		s.queue.popNewest()
		err = fmt.Errorf("docnet: write: %w", err)
		s.failLocked(err)
		return nil, err
	}
	return p, nil
}

// Call dispatches req and waits for its reply. Cancelling ctx abandons the
// wait but never the request: the entry keeps its slot in the reply order.
func (s *Session) Call(ctx context.Context, req *docp.Request) (*docp.Response, error) {
	p, err := s.Dispatch(req)
	if err != nil {
		return nil, err
	}
	return p.Await(ctx)
}

// readLoop is the sole reader of the connection. It runs from Connect until
// the stream ends and is the only goroutine that feeds the framer.
func (s *Session) readLoop(conn net.Conn) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.handleData(buf[:n])
		}
		if err != nil {
			s.handleDisconnect(err)
			return
		}
	}
}

// handleData runs the framer over freshly arrived bytes and settles one
// pending entry per complete line, oldest first. A line that fails to parse
// settles only its own entry; later bytes in the buffer are untouched and
// later lines pair with later entries as usual.
func (s *Session) handleData(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.framer.feed(chunk) {
		p := s.queue.pop()
		if p == nil {
			// More replies than requests is a server-side protocol
			// violation. Keep the session alive, surface it in the log.
			s.log.Warn("response with no pending request",
				zap.String("raw", line))
			continue
		}
		resp, err := docp.ParseResponse([]byte(line))
		if err != nil {
			s.log.Warn("malformed response line",
				zap.String("raw", line),
				zap.Error(err))
			p.fail(err)
			continue
		}
		p.resolve(resp)
	}
}

// handleDisconnect settles the session when the read side ends. EOF with an
// empty queue is the server's half of a clean shutdown. Anything else fails
// the oldest entry with the underlying cause and drains the rest with
// ErrConnClosed, so every dispatched request still settles exactly once.
func (s *Session) handleDisconnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected {
		// Close or a failed write already settled everything.
		return
	}

	if errors.Is(err, io.EOF) && s.queue.len() == 0 {
		s.state = StateClosed
		s.conn.Close()
		s.log.Info("connection closed by server")
		return
	}

	s.state = StateErrored
	s.cause = err
	s.conn.Close()
	s.log.Error("connection failed",
		zap.Error(err),
		zap.Int("pending", s.queue.len()))

	if oldest := s.queue.pop(); oldest != nil {
		oldest.fail(fmt.Errorf("docnet: receive: %w", err))
	}
	for _, p := range s.queue.drain() {
		p.fail(fmt.Errorf("%w: %w", ErrConnClosed, err))
	}
}

// failLocked tears the connection down after a local fault. Everything still
// pending settles with ErrConnClosed wrapping the cause.
func (s *Session) failLocked(cause error) {
	s.state = StateErrored
	s.cause = cause
	if s.conn != nil {
		s.conn.Close()
	}
	s.log.Error("connection failed",
		zap.Error(cause),
		zap.Int("pending", s.queue.len()))
	for _, p := range s.queue.drain() {
		p.fail(fmt.Errorf("%w: %w", ErrConnClosed, cause))
	}
}

// Close releases the connection. Entries still pending settle with
// ErrConnClosed. The polite exit round-trip lives a layer up; callers that
// want it send an exit request and wait for the reply before closing.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed, StateErrored:
		return nil
	case StateDisconnected, StateConnecting:
		s.state = StateClosed
		return nil
	}

	s.state = StateClosed
	err := s.conn.Close()
	for _, p := range s.queue.drain() {
		p.fail(ErrConnClosed)
	}
	s.log.Info("connection closed")
	return err
}

// State reports the connection's lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the first fatal transport error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// PendingCount reports how many dispatched requests still await a reply.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

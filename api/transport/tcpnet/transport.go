// Package tcpnet implements `transport.Transport` over plain TCP for running
// each party of a protocol in its own process.
//
// Every party listens on its own address. Outgoing connections are dialled
// lazily on the first send to a peer and reused afterwards; each accepted
// connection gets a reader goroutine that decodes length-prefixed frames into
// the shared inbox. A receive that times out closes the whole transport, as
// the protocol cannot make progress past a missing variable.
package tcpnet

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/sync/errgroup"

	"github.com/LuukJonker/smpc/api/transport"
)

const (
	initialRetryDelay = 50 * time.Millisecond
	maxRetryDelay     = time.Second
)

// TCPMessenger is a listening party endpoint.
type TCPMessenger struct {
	cfg      Config
	listener net.Listener
	inbox    *transport.Inbox
	group    errgroup.Group

	mu       sync.Mutex
	outbound map[string]net.Conn
	inbound  map[net.Conn]struct{}
	closed   bool

	// writeMu serialises frames written on outbound connections.
	writeMu sync.Mutex
}

// Ensure TCPMessenger implements the Transport interface
var _ transport.Transport = (*TCPMessenger)(nil)

// Config describes one party's view of the network.
type Config struct {
	// Self is the party name this endpoint sends as.
	Self string
	// Address is the host:port to listen on.
	Address string
	// Peers maps party names to the addresses they listen on. It may
	// include Self.
	Peers map[string]string
	// ReceiveTimeout defaults to transport.DefaultReceiveTimeout.
	ReceiveTimeout time.Duration
	// DialTimeout defaults to transport.DefaultDialTimeout.
	DialTimeout time.Duration
}

// Listen starts accepting connections on cfg.Address.
func Listen(cfg Config) (*TCPMessenger, error) {
	if cfg.Self == "" {
		return nil, errors.New("tcpnet: party name is required")
	}
	if cfg.ReceiveTimeout <= 0 {
		cfg.ReceiveTimeout = transport.DefaultReceiveTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = transport.DefaultDialTimeout
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "starting server on %s", cfg.Address)
	}

	m := &TCPMessenger{
		cfg:      cfg,
		listener: ln,
		inbox:    transport.NewInbox(),
		outbound: make(map[string]net.Conn),
		inbound:  make(map[net.Conn]struct{}),
	}
	m.group.Go(m.acceptLoop)
	jww.INFO.Printf("tcpnet: %s listening on %s", cfg.Self, ln.Addr())
	return m, nil
}

// Addr returns the address the messenger listens on.
func (m *TCPMessenger) Addr() net.Addr {
	return m.listener.Addr()
}

// Name returns the party name the messenger sends as.
func (m *TCPMessenger) Name() string {
	return m.cfg.Self
}

func (m *TCPMessenger) acceptLoop() error {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			if m.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			jww.ERROR.Printf("tcpnet: %s: accepting connection: %v", m.cfg.Self, err)
			return errors.Wrap(err, "accepting connection")
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			conn.Close()
			return nil
		}
		m.inbound[conn] = struct{}{}
		m.mu.Unlock()

		jww.DEBUG.Printf("tcpnet: %s: accepted connection from %s", m.cfg.Self, conn.RemoteAddr())
		m.group.Go(func() error {
			m.readLoop(conn)
			return nil
		})
	}
}

func (m *TCPMessenger) readLoop(conn net.Conn) {
	defer func() {
		m.mu.Lock()
		delete(m.inbound, conn)
		m.mu.Unlock()
		conn.Close()
	}()

	r := bufio.NewReader(conn)
	for {
		msg, err := transport.ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) || m.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			jww.ERROR.Printf("tcpnet: %s: reading from %s: %v", m.cfg.Self, conn.RemoteAddr(), err)
			return
		}
		if err := m.inbox.Put(msg); err != nil {
			return
		}
		jww.TRACE.Printf("tcpnet: %s <- %s (%d vars)", m.cfg.Self, msg.Sender, len(msg.Vars))
	}
}

// Send writes vars as one frame to the receiver, connecting first if
// needed. Failing to reach the receiver closes the messenger.
func (m *TCPMessenger) Send(ctx context.Context, receiver string, vars []transport.Variable) (int, error) {
	if m.isClosed() {
		return 0, transport.ErrTransportClosed
	}
	if receiver == m.cfg.Self {
		return 0, errors.New("cannot send to self")
	}

	msg, err := transport.NewMessage(m.cfg.Self, vars)
	if err != nil {
		return 0, err
	}

	conn, err := m.dial(ctx, receiver)
	if err != nil {
		_ = m.Close()
		return 0, unreachable(receiver, err)
	}

	m.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	_, err = transport.WriteFrame(conn, msg)
	m.writeMu.Unlock()
	if err != nil {
		_ = m.Close()
		return 0, unreachable(receiver, err)
	}
	return msg.Size(), nil
}

// unreachable wraps ErrPeerUnreachable so both errors.Is flavours match it,
// keeping the dial or write failure as secondary detail.
func unreachable(peer string, cause error) error {
	return errors.WithSecondaryError(errors.Wrapf(transport.ErrPeerUnreachable, "sending to %q", peer), cause)
}

// dial returns the outbound connection to a peer, retrying with a growing
// delay until the dial timeout while the peer is not listening yet.
func (m *TCPMessenger) dial(ctx context.Context, peer string) (net.Conn, error) {
	m.mu.Lock()
	conn, ok := m.outbound[peer]
	m.mu.Unlock()
	if ok {
		return conn, nil
	}

	address, ok := m.cfg.Peers[peer]
	if !ok {
		return nil, errors.Newf("no address known for party %q", peer)
	}

	dialer := net.Dialer{Timeout: m.cfg.DialTimeout}
	deadline := time.Now().Add(m.cfg.DialTimeout)
	delay := initialRetryDelay
	for attempts := 1; ; attempts++ {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			m.mu.Lock()
			if m.closed {
				m.mu.Unlock()
				conn.Close()
				return nil, transport.ErrTransportClosed
			}
			m.outbound[peer] = conn
			m.mu.Unlock()
			jww.DEBUG.Printf("tcpnet: %s: connected to %s at %s", m.cfg.Self, peer, address)
			return conn, nil
		}
		if ctx.Err() != nil || !time.Now().Add(delay).Before(deadline) {
			return nil, errors.Wrapf(err, "connecting to %s after %d attempts", address, attempts)
		}

		jww.DEBUG.Printf("tcpnet: %s: %s not reachable yet, retrying in %s", m.cfg.Self, peer, delay)
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "connecting to %s", address)
		case <-time.After(delay):
		}
		delay = min(2*delay, maxRetryDelay)
	}
}

// Receive waits up to the receive timeout for the named variables. A
// timeout closes the messenger and returns a
// transport.VariableNotReceivedError.
func (m *TCPMessenger) Receive(ctx context.Context, sender string, names []string) ([]transport.Variable, int, error) {
	if m.isClosed() {
		return nil, 0, transport.ErrTransportClosed
	}

	entries, err := m.inbox.Take(ctx, sender, names, m.cfg.ReceiveTimeout)
	if err != nil {
		var notReceived *transport.VariableNotReceivedError
		if errors.As(err, &notReceived) {
			jww.ERROR.Printf("tcpnet: %s: %v", m.cfg.Self, err)
			_ = m.Close()
		}
		return nil, 0, err
	}

	vars, err := transport.DecodeEntries(entries)
	if err != nil {
		return nil, 0, err
	}
	return vars, transport.EntriesSize(entries), nil
}

// Close closes the listener and every connection, then waits for the reader
// goroutines to finish. It is safe to call more than once.
func (m *TCPMessenger) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	jww.DEBUG.Printf("tcpnet: closing %s", m.cfg.Self)
	err := m.listener.Close()
	for peer, conn := range m.outbound {
		if cerr := conn.Close(); cerr != nil {
			jww.DEBUG.Printf("tcpnet: %s: closing connection to %s: %v", m.cfg.Self, peer, cerr)
		}
	}
	for conn := range m.inbound {
		conn.Close()
	}
	m.mu.Unlock()

	m.inbox.Close()
	if werr := m.group.Wait(); werr != nil {
		jww.WARN.Printf("tcpnet: %s: %v", m.cfg.Self, werr)
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "closing listener")
	}
	return nil
}

func (m *TCPMessenger) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

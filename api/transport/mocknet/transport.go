package mocknet

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/transport"
)

// MockMessenger is one party's endpoint on a mock Network.
type MockMessenger struct {
	name    string
	network *Network
	inbox   *transport.Inbox
	mutex   sync.Mutex
	closed  bool
}

// Ensure MockMessenger implements the Transport interface
var _ transport.Transport = (*MockMessenger)(nil)

// Network connects the messengers of all parties in a process.
type Network struct {
	mutex   sync.RWMutex
	members map[string]*MockMessenger
	timeout time.Duration
}

// NewNetwork creates an empty network. Receives wait up to timeout for a
// value to show up; a zero timeout makes them fail at once.
func NewNetwork(timeout time.Duration) *Network {
	return &Network{members: make(map[string]*MockMessenger), timeout: timeout}
}

// NewMockNetwork creates a network with one messenger per name, returned in
// the same order as names.
func NewMockNetwork(names ...string) (*Network, []*MockMessenger, error) {
	network := NewNetwork(0)
	messengers := make([]*MockMessenger, len(names))
	for i, name := range names {
		m, err := network.Join(name)
		if err != nil {
			return nil, nil, err
		}
		messengers[i] = m
	}
	return network, messengers, nil
}

// Join attaches a new messenger for the named party.
func (n *Network) Join(name string) (*MockMessenger, error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if _, exists := n.members[name]; exists {
		return nil, errors.Newf("party %q already joined the network", name)
	}
	m := &MockMessenger{name: name, network: n, inbox: transport.NewInbox()}
	n.members[name] = m
	return m, nil
}

// Messenger returns the messenger of the named party, if it joined.
func (n *Network) Messenger(name string) (*MockMessenger, bool) {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	m, ok := n.members[name]
	return m, ok
}

// Members returns the number of parties on the network.
func (n *Network) Members() int {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return len(n.members)
}

// Name returns the party name the messenger sends as.
func (m *MockMessenger) Name() string {
	return m.name
}

// Send delivers vars to the receiver's inbox.
func (m *MockMessenger) Send(_ context.Context, receiver string, vars []transport.Variable) (int, error) {
	if m.isClosed() {
		return 0, transport.ErrTransportClosed
	}
	if receiver == m.name {
		return 0, errors.New("cannot send to self")
	}

	peer, ok := m.network.Messenger(receiver)
	if !ok {
		return 0, errors.Newf("party %q is not on the network", receiver)
	}

	msg, err := transport.NewMessage(m.name, vars)
	if err != nil {
		return 0, err
	}
	if err := peer.inbox.Put(msg); err != nil {
		return 0, errors.Wrapf(err, "delivering to %q", receiver)
	}
	jww.TRACE.Printf("mocknet: %s -> %s (%d vars)", m.name, receiver, len(vars))
	return msg.Size(), nil
}

// Receive takes the named variables sent by sender. A variable that is
// not there closes the messenger and returns a
// transport.VariableNotReceivedError.
func (m *MockMessenger) Receive(ctx context.Context, sender string, names []string) ([]transport.Variable, int, error) {
	if m.isClosed() {
		return nil, 0, transport.ErrTransportClosed
	}
	if sender == m.name {
		return nil, 0, errors.New("cannot receive from self")
	}

	entries, err := m.inbox.Take(ctx, sender, names, m.network.timeout)
	if err != nil {
		var notReceived *transport.VariableNotReceivedError
		if errors.As(err, &notReceived) {
			jww.ERROR.Printf("mocknet: %s: %v", m.name, err)
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

// Close marks the messenger closed and drops its pending messages.
func (m *MockMessenger) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.inbox.Close()
	return nil
}

func (m *MockMessenger) isClosed() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.closed
}

package party

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/stats"
	"github.com/LuukJonker/smpc/api/transport"
	"github.com/LuukJonker/smpc/internal/cputime"
)

// Func is a local computation. It receives the values of its input
// variables in order. A computation assigning a single variable returns that
// value; one assigning several returns a []any with one value per variable.
type Func func(args ...any) (any, error)

// Party is a named participant with its own variables, transport and
// statistics. A Party is not safe for concurrent use.
type Party struct {
	name      string
	address   string
	store     *Store
	transport transport.Transport
	stats     stats.Statistics
}

// New creates a party with an empty store and no transport.
func New(name string) *Party {
	return &Party{name: name, store: NewStore(name)}
}

// Name returns the party's name. Names identify parties on the network.
func (p *Party) Name() string {
	return p.name
}

// Store exposes the party's variable store.
func (p *Party) Store() *Store {
	return p.store
}

// Get reads a variable in the current namespace.
func (p *Party) Get(name string) (any, error) {
	return p.store.Get(name)
}

// Set assigns a variable in the current namespace.
func (p *Party) Set(name string, value any) {
	p.store.Set(name, value)
}

// Transport returns the party's transport, or nil if none is attached.
func (p *Party) Transport() transport.Transport {
	return p.transport
}

// SetTransport attaches the transport used for sending and receiving.
func (p *Party) SetTransport(t transport.Transport) {
	p.transport = t
}

// Address returns the network address the party listens on, if any.
func (p *Party) Address() string {
	return p.address
}

// SetAddress records the network address of the party.
func (p *Party) SetAddress(address string) {
	p.address = address
}

// RunComputation evaluates fn over the inputs and assigns the result to the
// computed variables. It returns the assigned values in order.
func (p *Party) RunComputation(computed, inputs []string, fn Func, description string) ([]any, error) {
	args := make([]any, len(inputs))
	for i, name := range inputs {
		v, err := p.store.Get(name)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	var (
		result any
		err    error
	)
	start := time.Now()
	p.stats.ExecutionCPUTime += cputime.Measure(func() { result, err = fn(args...) })
	p.stats.ExecutionTime += time.Since(start)
	if err != nil {
		return nil, errors.Wrapf(err, "party %q: computation %q", p.name, description)
	}

	values, err := unpack(result, len(computed), description)
	if err != nil {
		return nil, err
	}
	for i, name := range computed {
		p.store.Set(name, values[i])
	}
	return values, nil
}

// unpack splits a computation result over want variables.
func unpack(result any, want int, description string) ([]any, error) {
	switch want {
	case 0:
		return nil, nil
	case 1:
		return []any{result}, nil
	}

	values, ok := result.([]any)
	if !ok {
		return nil, &ArityError{Description: description, Expected: want, Got: 1}
	}
	if len(values) != want {
		return nil, &ArityError{Description: description, Expected: want, Got: len(values)}
	}
	return values, nil
}

// SendVariables sends the named variables to the receiver as one message
// and returns the sent values keyed by name.
func (p *Party) SendVariables(ctx context.Context, receiver *Party, names []string) (map[string]any, error) {
	if p.transport == nil {
		return nil, errors.Newf("party %q has no transport", p.name)
	}

	values := make(map[string]any, len(names))
	vars := make([]transport.Variable, len(names))
	for i, name := range names {
		v, err := p.store.Get(name)
		if err != nil {
			return nil, err
		}
		values[name] = v
		vars[i] = transport.Variable{Name: p.store.WireName(name), Value: v}
	}

	start := time.Now()
	n, err := p.transport.Send(ctx, receiver.Name(), vars)
	p.stats.ExecutionTime += time.Since(start)
	if err != nil {
		return nil, errors.Wrapf(err, "party %q: sending to %q", p.name, receiver.Name())
	}

	p.stats.MessagesSent++
	p.stats.BytesSent += uint64(n)
	jww.DEBUG.Printf("%s -> %s: %v (%d bytes)", p.name, receiver.Name(), names, n)
	return values, nil
}

// ReceiveVariables waits for the named variables from the sender and stores
// them under the same names. It returns the received values keyed by name.
func (p *Party) ReceiveVariables(ctx context.Context, sender *Party, names []string) (map[string]any, error) {
	if p.transport == nil {
		return nil, errors.Newf("party %q has no transport", p.name)
	}

	qualified := make([]string, len(names))
	for i, name := range names {
		qualified[i] = p.store.WireName(name)
	}

	start := time.Now()
	vars, n, err := p.transport.Receive(ctx, sender.Name(), qualified)
	p.stats.WaitTime += time.Since(start)
	if err != nil {
		return nil, errors.Wrapf(err, "party %q: receiving from %q", p.name, sender.Name())
	}

	values := make(map[string]any, len(names))
	for i, name := range names {
		p.store.Set(name, vars[i].Value)
		values[name] = vars[i].Value
	}

	p.stats.MessagesReceived++
	p.stats.BytesReceived += uint64(n)
	jww.DEBUG.Printf("%s <- %s: %v (%d bytes)", p.name, sender.Name(), names, n)
	return values, nil
}

// StartSubroutine enters the namespace of a subroutine.
func (p *Party) StartSubroutine(name string) {
	p.store.Push(name)
}

// EndSubroutine leaves the innermost subroutine namespace.
func (p *Party) EndSubroutine() error {
	_, err := p.store.Pop()
	return err
}

// Statistics returns the resources spent by the party so far.
func (p *Party) Statistics() stats.Statistics {
	return p.stats
}

// ResetStatistics zeroes the party's counters.
func (p *Party) ResetStatistics() {
	p.stats = stats.Statistics{}
}

// Close closes the party's transport, if any.
func (p *Party) Close() error {
	if p.transport == nil {
		return nil
	}
	return p.transport.Close()
}

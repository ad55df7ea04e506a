package runner

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/sync/errgroup"

	"github.com/LuukJonker/smpc/api/protocol"
	"github.com/LuukJonker/smpc/api/stats"
)

// Factory builds a fresh protocol definition.
type Factory func() (protocol.Protocol, error)

// Result is the outcome of a protocol execution.
type Result struct {
	Output     map[string]map[string]any   `json:"output"`
	Statistics map[string]stats.Statistics `json:"statistics"`
	Total      stats.Statistics            `json:"total"`
	Trace      []*protocol.Step            `json:"-"`
}

// ErrSharedObserver is returned by RunDistributed when Options.Observer is
// set. Every role runs its own engine concurrently and needs its own
// observer, see Options.ObserverFor.
var ErrSharedObserver = errors.New("runner: Options.Observer cannot be shared by concurrent roles")

// Options tune a distributed execution.
type Options struct {
	ReceiveTimeout time.Duration
	DialTimeout    time.Duration

	// Observer receives the events of RunParty.
	Observer protocol.Observer

	// ObserverFor returns the observer of one role in RunDistributed. It is
	// called once per role before the roles start.
	ObserverFor func(role string) protocol.Observer
}

// RunSimulated runs the protocol with every party in this process.
func RunSimulated(ctx context.Context, factory Factory, inputs map[string]map[string]any, observer protocol.Observer) (*Result, error) {
	def, err := factory()
	if err != nil {
		return nil, err
	}
	e := protocol.New(def)
	defer e.Terminate()
	if observer != nil {
		e.SetObserver(observer)
	}
	if err := e.SetInput(inputs); err != nil {
		return nil, err
	}
	if err := e.Call(ctx); err != nil {
		return nil, err
	}
	return result(e, nil)
}

// RunParty runs role of the protocol in this process. inputs are the role's
// own inputs; addresses lists every role's listen address.
func RunParty(ctx context.Context, def protocol.Protocol, role string, inputs map[string]any, addresses map[string]string, opts Options) (*Result, error) {
	e := protocol.New(def)
	if opts.ReceiveTimeout > 0 {
		e.SetReceiveTimeout(opts.ReceiveTimeout)
	}
	if opts.DialTimeout > 0 {
		e.SetDialTimeout(opts.DialTimeout)
	}
	if opts.Observer != nil {
		e.SetObserver(opts.Observer)
	}
	if err := e.SetPartyAddresses(addresses, role); err != nil {
		return nil, err
	}
	defer e.Terminate()

	var in map[string]map[string]any
	if len(def.ExpectedInput()[role]) > 0 || len(inputs) > 0 {
		in = map[string]map[string]any{role: inputs}
	}
	if err := e.SetInput(in); err != nil {
		return nil, err
	}
	if err := e.Call(ctx); err != nil {
		return nil, err
	}
	return result(e, func(r string) bool { return r == role })
}

// RunDistributed runs every role of the protocol on its own TCP listener,
// each in its own goroutine, and merges the results.
func RunDistributed(ctx context.Context, factory Factory, inputs map[string]map[string]any, addresses map[string]string, opts Options) (*Result, error) {
	def, err := factory()
	if err != nil {
		return nil, err
	}
	if opts.Observer != nil {
		return nil, ErrSharedObserver
	}
	roles := def.PartyNames()
	perRole := make(map[string]Options, len(roles))
	for _, role := range roles {
		if _, ok := addresses[role]; !ok {
			return nil, errors.Newf("no address for role %q", role)
		}
		o := opts
		o.ObserverFor = nil
		if opts.ObserverFor != nil {
			o.Observer = opts.ObserverFor(role)
		}
		perRole[role] = o
	}

	var (
		mu      sync.Mutex
		results = make([]*Result, 0, len(roles))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, role := range roles {
		g.Go(func() error {
			def, err := factory()
			if err != nil {
				return err
			}
			r, err := RunParty(ctx, def, role, inputs[role], addresses, perRole[role])
			if err != nil {
				return errors.Wrapf(err, "role %s", role)
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Result{Output: make(map[string]map[string]any)}
	parts := make([]map[string]stats.Statistics, 0, len(results))
	for _, r := range results {
		for role, values := range r.Output {
			merged.Output[role] = values
		}
		parts = append(parts, r.Statistics)
		if merged.Trace == nil {
			merged.Trace = r.Trace
		}
	}
	merged.Statistics = stats.Merge(parts...)
	merged.Total = stats.Total(merged.Statistics)
	jww.DEBUG.Printf("%s: distributed run finished, %s", def.Name(), merged.Total)
	return merged, nil
}

func result(e *protocol.Engine, keep func(role string) bool) (*Result, error) {
	out, err := e.Output()
	if err != nil {
		return nil, err
	}
	all := e.PartyStatistics()
	st := make(map[string]stats.Statistics, len(all))
	for role, s := range all {
		if keep == nil || keep(role) {
			st[role] = s
		}
	}
	return &Result{
		Output:     out,
		Statistics: st,
		Total:      stats.Total(st),
		Trace:      e.Trace(),
	}, nil
}

// LoopbackAddresses reserves a free port on 127.0.0.1 for every role. The
// ports are released before returning, so another process may grab one in
// the meantime.
func LoopbackAddresses(roles []string) (map[string]string, error) {
	addresses := make(map[string]string, len(roles))
	listeners := make([]net.Listener, 0, len(roles))
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()
	for _, role := range roles {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, errors.Wrap(err, "reserving loopback port")
		}
		listeners = append(listeners, l)
		addresses[role] = l.Addr().String()
	}
	return addresses, nil
}

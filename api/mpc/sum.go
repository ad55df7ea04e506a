package mpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/party"
	"github.com/LuukJonker/smpc/api/protocol"
)

// SumName is the protocol name of Sum.
const SumName = "Sum"

// Sum adds up one private value per party. Every party sends its value to
// party_0, which outputs the total as "sum".
type Sum struct {
	roles []string
}

var _ protocol.Protocol = (*Sum)(nil)

// NewSum returns a Sum over n parties named party_0 … party_{n-1}.
func NewSum(n int) (*Sum, error) {
	if n < 2 {
		return nil, errors.Newf("sum needs at least 2 parties, got %d", n)
	}
	return &Sum{roles: GeneratePartyNames(n)}, nil
}

// GeneratePartyNames returns the default party name list ("party_0",
// "party_1", ...) for the given number of parties.
func GeneratePartyNames(n int) []string {
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = fmt.Sprintf("party_%d", i)
	}
	return names
}

func (s *Sum) Name() string         { return SumName }
func (s *Sum) PartyNames() []string { return append([]string(nil), s.roles...) }

func (s *Sum) ExpectedInput() map[string][]string {
	in := make(map[string][]string, len(s.roles))
	for _, r := range s.roles {
		in[r] = []string{"value"}
	}
	return in
}

func (s *Sum) OutputVariables() map[string][]string {
	return map[string][]string{s.roles[0]: {"sum"}}
}

func (s *Sum) Run(e *protocol.Engine) error {
	leader := e.Party(s.roles[0])
	others := make([]*party.Party, 0, len(s.roles)-1)
	for _, r := range s.roles[1:] {
		others = append(others, e.Party(r))
	}

	// Each value gets a per-party name so party_0 can hold all of them.
	e.AddProtocolStep("Share values")
	received := []string{"value"}
	for i, p := range others {
		name := fmt.Sprintf("value_%d", i+1)
		e.Compute(p, []string{name}, []string{"value"}, identity, name+" = value")
		e.SendVariables(p, leader, name)
		received = append(received, name)
	}

	e.AddProtocolStep("Add values")
	e.Compute(leader, []string{"sum"}, received, bigFunc(func(values []*big.Int) (any, error) {
		total := new(big.Int)
		for _, v := range values {
			total.Add(total, v)
		}
		return total, nil
	}), "sum = value + value_1 + ...")
	return nil
}

func identity(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.Newf("expected 1 argument, got %d", len(args))
	}
	return args[0], nil
}

// SumRequest holds one value per party, indexed like the party names.
type SumRequest struct {
	Values []any
}

// SumResponse is the outcome of a simulated Sum run.
type SumResponse struct {
	Sum *big.Int
}

// RunSum runs Sum with all parties in the current process.
func RunSum(ctx context.Context, req *SumRequest) (*SumResponse, error) {
	s, err := NewSum(len(req.Values))
	if err != nil {
		return nil, err
	}
	inputs := make(map[string]map[string]any, len(s.roles))
	for i, r := range s.roles {
		inputs[r] = map[string]any{"value": req.Values[i]}
	}
	out, err := simulate(ctx, s, inputs)
	if err != nil {
		return nil, err
	}
	total, err := toBig(out[s.roles[0]]["sum"])
	if err != nil {
		return nil, err
	}
	return &SumResponse{Sum: total}, nil
}

// simulate runs def once with every party local and returns its output.
func simulate(ctx context.Context, def protocol.Protocol, inputs map[string]map[string]any) (map[string]map[string]any, error) {
	e := protocol.New(def)
	defer e.Terminate()
	if err := e.SetInput(inputs); err != nil {
		return nil, err
	}
	if err := e.Call(ctx); err != nil {
		return nil, err
	}
	return e.Output()
}

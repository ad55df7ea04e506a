package mpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/party"
	"github.com/LuukJonker/smpc/api/protocol"
)

const (
	// MultiplicationName is the protocol name of Multiplication.
	MultiplicationName = "Multiplication"

	// DefaultMultiplicationBits is the default share size of Multiplication.
	DefaultMultiplicationBits = 32
)

// Multiplication is Gilboa's two-party multiplication. Alice holds a, Bob
// holds b and they end up with additive shares x and y such that
// x + y = a·b mod 2^l. It runs one OT per bit of b, Alice being the sender.
type Multiplication struct {
	l  int
	ot *OT
}

var _ protocol.Protocol = (*Multiplication)(nil)

// NewMultiplication returns a Multiplication over l-bit shares whose
// oblivious transfers use RSA moduli of otBits bits.
func NewMultiplication(l, otBits int) (*Multiplication, error) {
	ot, err := NewOT(otBits)
	if err != nil {
		return nil, err
	}
	if l < 1 || l >= otBits-1 {
		return nil, errors.Newf("share size must be between 1 and %d bits, got %d", otBits-2, l)
	}
	return &Multiplication{l: l, ot: ot}, nil
}

// Bits returns the share size l.
func (m *Multiplication) Bits() int { return m.l }

func (m *Multiplication) Name() string         { return MultiplicationName }
func (m *Multiplication) PartyNames() []string { return []string{"Alice", "Bob"} }

func (m *Multiplication) ExpectedInput() map[string][]string {
	return map[string][]string{"Alice": {"a"}, "Bob": {"b"}}
}

func (m *Multiplication) OutputVariables() map[string][]string {
	return map[string][]string{"Alice": {"x"}, "Bob": {"y"}}
}

func indexed(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s_%d", prefix, i)
	}
	return names
}

func (m *Multiplication) modulus() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(m.l))
}

func (m *Multiplication) Run(e *protocol.Engine) error {
	alice, bob := e.Party("Alice"), e.Party("Bob")
	r, s, bits, mb := indexed("r", m.l), indexed("s", m.l), indexed("b", m.l), indexed("mb", m.l)

	e.AddProtocolStep("Prepare transfers")
	e.Compute(alice, append(append([]string(nil), r...), s...), []string{"a"}, bigFunc(m.messages),
		"r_i random, s_i = (a·2^i + r_i) mod 2^l")
	e.Compute(bob, bits, []string{"b"}, bigFunc(m.decompose), "b_i = bit i of b")

	e.AddProtocolStep("Oblivious transfers")
	roles := map[string]*party.Party{"Sender": alice, "Receiver": bob}
	for i := 0; i < m.l; i++ {
		e.RunSubroutine(m.ot, roles,
			map[string]map[string]string{
				"Sender":   {"m0": r[i], "m1": s[i]},
				"Receiver": {"b": bits[i]},
			},
			map[string]map[string]string{"Receiver": {"mb": mb[i]}},
		)
	}

	e.AddProtocolStep("Shares")
	e.Compute(alice, []string{"x"}, r, bigFunc(func(in []*big.Int) (any, error) {
		x := new(big.Int)
		for _, v := range in {
			x.Sub(x, v)
		}
		return x.Mod(x, m.modulus()), nil
	}), "x = -Σ r_i mod 2^l")
	e.Compute(bob, []string{"y"}, mb, bigFunc(func(in []*big.Int) (any, error) {
		y := new(big.Int)
		for _, v := range in {
			y.Add(y, v)
		}
		return y.Mod(y, m.modulus()), nil
	}), "y = Σ mb_i mod 2^l")
	return nil
}

// messages draws the masks r_i and derives s_i from a.
func (m *Multiplication) messages(in []*big.Int) (any, error) {
	mod := m.modulus()
	a := new(big.Int).Mod(in[0], mod)
	out := make([]any, 2*m.l)
	for i := 0; i < m.l; i++ {
		r, err := randomBelow(mod)
		if err != nil {
			return nil, err
		}
		s := new(big.Int).Lsh(a, uint(i))
		s.Add(s, r).Mod(s, mod)
		out[i], out[m.l+i] = r, s
	}
	return out, nil
}

func (m *Multiplication) decompose(in []*big.Int) (any, error) {
	b := new(big.Int).Mod(in[0], m.modulus())
	out := make([]any, m.l)
	for i := range out {
		out[i] = int(b.Bit(i))
	}
	if m.l == 1 {
		return out[0], nil
	}
	return out, nil
}

// MultiplicationRequest holds the inputs of a simulated Multiplication run.
type MultiplicationRequest struct {
	Bits   int // share size l, DefaultMultiplicationBits when zero
	OTBits int // DefaultOTBits when zero
	A, B   any
}

// MultiplicationResponse carries both shares of a simulated run.
type MultiplicationResponse struct {
	X, Y *big.Int
}

// Product recombines the shares into a·b mod 2^l.
func (r *MultiplicationResponse) Product(l int) *big.Int {
	p := new(big.Int).Add(r.X, r.Y)
	return p.Mod(p, new(big.Int).Lsh(big.NewInt(1), uint(l)))
}

// RunMultiplication runs Multiplication with both parties in the current
// process.
func RunMultiplication(ctx context.Context, req *MultiplicationRequest) (*MultiplicationResponse, error) {
	l, otBits := req.Bits, req.OTBits
	if l == 0 {
		l = DefaultMultiplicationBits
	}
	if otBits == 0 {
		otBits = DefaultOTBits
	}
	m, err := NewMultiplication(l, otBits)
	if err != nil {
		return nil, err
	}
	out, err := simulate(ctx, m, map[string]map[string]any{
		"Alice": {"a": req.A},
		"Bob":   {"b": req.B},
	})
	if err != nil {
		return nil, err
	}
	x, err := toBig(out["Alice"]["x"])
	if err != nil {
		return nil, err
	}
	y, err := toBig(out["Bob"]["y"])
	if err != nil {
		return nil, err
	}
	return &MultiplicationResponse{X: x, Y: y}, nil
}

package mpc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/protocol"
)

const (
	// OTName is the protocol name of OT.
	OTName = "OT"

	// DefaultOTBits is the default RSA modulus size of OT. It is also the
	// smallest size crypto/rsa accepts.
	DefaultOTBits = 1024
)

// OT is the RSA based 1-out-of-2 oblivious transfer of Even, Goldreich and
// Lempel.
//
// The Sender inputs m0 and m1, the Receiver inputs a choice bit b. The
// Receiver outputs mb = m_b mod N where N is the Sender's RSA modulus, which
// the Sender outputs as well. Any non-zero b selects m1.
type OT struct {
	bits int
}

var _ protocol.Protocol = (*OT)(nil)

// NewOT returns an OT using an RSA modulus of the given size.
func NewOT(bits int) (*OT, error) {
	if bits < DefaultOTBits {
		return nil, errors.Newf("RSA modulus must have at least %d bits, got %d", DefaultOTBits, bits)
	}
	return &OT{bits: bits}, nil
}

// Bits returns the size of the RSA modulus.
func (o *OT) Bits() int { return o.bits }

func (o *OT) Name() string         { return OTName }
func (o *OT) PartyNames() []string { return []string{"Sender", "Receiver"} }

func (o *OT) ExpectedInput() map[string][]string {
	return map[string][]string{
		"Sender":   {"m0", "m1"},
		"Receiver": {"b"},
	}
}

func (o *OT) OutputVariables() map[string][]string {
	return map[string][]string{
		"Sender":   {"N"},
		"Receiver": {"mb"},
	}
}

func (o *OT) Run(e *protocol.Engine) error {
	sender, receiver := e.Party("Sender"), e.Party("Receiver")

	e.AddProtocolStep("Key generation")
	e.Compute(sender, []string{"N", "e", "d", "x0", "x1"}, nil, o.keygen,
		"RSA key (N, e, d) and random x0, x1 < N")
	e.SendVariables(sender, receiver, "N", "e", "x0", "x1")

	e.AddProtocolStep("Blinding")
	e.Compute(receiver, []string{"k", "v"}, []string{"b", "N", "e", "x0", "x1"}, bigFunc(blind),
		"k random, v = (x_b + k^e) mod N")
	e.SendVariables(receiver, sender, "v")

	e.AddProtocolStep("Masking")
	e.Compute(sender, []string{"k0", "k1"}, []string{"v", "x0", "x1", "d", "N"}, bigFunc(unblind),
		"k_i = (v - x_i)^d mod N")
	e.Compute(sender, []string{"c0", "c1"}, []string{"m0", "m1", "k0", "k1", "N"}, bigFunc(mask),
		"c_i = (m_i + k_i) mod N")
	e.SendVariables(sender, receiver, "c0", "c1")

	e.AddProtocolStep("Unmasking")
	e.Compute(receiver, []string{"mb"}, []string{"b", "c0", "c1", "k", "N"}, bigFunc(unmask),
		"mb = (c_b - k) mod N")
	return nil
}

func (o *OT) keygen(...any) (any, error) {
	key, err := rsa.GenerateKey(rand.Reader, o.bits)
	if err != nil {
		return nil, errors.Wrap(err, "generating RSA key")
	}
	n := key.PublicKey.N
	x0, err := randomBelow(n)
	if err != nil {
		return nil, err
	}
	x1, err := randomBelow(n)
	if err != nil {
		return nil, err
	}
	return protocol.Values(new(big.Int).Set(n), big.NewInt(int64(key.PublicKey.E)), new(big.Int).Set(key.D), x0, x1), nil
}

// blind takes b, N, e, x0 and x1.
func blind(in []*big.Int) (any, error) {
	b, n, exp := in[0], in[1], in[2]
	x := in[3]
	if b.Sign() != 0 {
		x = in[4]
	}
	k, err := randomBelow(n)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).Exp(k, exp, n)
	v.Add(v, x).Mod(v, n)
	return protocol.Values(k, v), nil
}

// unblind takes v, x0, x1, d and N.
func unblind(in []*big.Int) (any, error) {
	v, d, n := in[0], in[3], in[4]
	k := func(x *big.Int) *big.Int {
		t := new(big.Int).Sub(v, x)
		t.Mod(t, n)
		return t.Exp(t, d, n)
	}
	return protocol.Values(k(in[1]), k(in[2])), nil
}

// mask takes m0, m1, k0, k1 and N.
func mask(in []*big.Int) (any, error) {
	n := in[4]
	c0 := new(big.Int).Add(in[0], in[2])
	c1 := new(big.Int).Add(in[1], in[3])
	return protocol.Values(c0.Mod(c0, n), c1.Mod(c1, n)), nil
}

// unmask takes b, c0, c1, k and N.
func unmask(in []*big.Int) (any, error) {
	b, k, n := in[0], in[3], in[4]
	c := in[1]
	if b.Sign() != 0 {
		c = in[2]
	}
	mb := new(big.Int).Sub(c, k)
	return mb.Mod(mb, n), nil
}

// OTRequest holds the inputs of a simulated OT run.
type OTRequest struct {
	Bits   int // RSA modulus size, DefaultOTBits when zero
	M0, M1 any
	Choice int
}

// OTResponse is the outcome of a simulated OT run.
type OTResponse struct {
	Message *big.Int // m_b mod N
	Modulus *big.Int
}

// RunOT runs OT with both parties in the current process.
func RunOT(ctx context.Context, req *OTRequest) (*OTResponse, error) {
	bits := req.Bits
	if bits == 0 {
		bits = DefaultOTBits
	}
	ot, err := NewOT(bits)
	if err != nil {
		return nil, err
	}
	out, err := simulate(ctx, ot, map[string]map[string]any{
		"Sender":   {"m0": req.M0, "m1": req.M1},
		"Receiver": {"b": req.Choice},
	})
	if err != nil {
		return nil, err
	}
	mb, err := toBig(out["Receiver"]["mb"])
	if err != nil {
		return nil, err
	}
	n, err := toBig(out["Sender"]["N"])
	if err != nil {
		return nil, err
	}
	return &OTResponse{Message: mb, Modulus: n}, nil
}

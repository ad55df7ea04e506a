package mpc

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/protocol"
)

// ECDHName is the protocol name of ECDH.
const ECDHName = "ECDH"

// ECDH is Diffie-Hellman key agreement on secp256k1. Alice and Bob each
// publish a compressed public key and both output the same 32 byte secret.
type ECDH struct{}

var _ protocol.Protocol = ECDH{}

func (ECDH) Name() string                       { return ECDHName }
func (ECDH) PartyNames() []string               { return []string{"Alice", "Bob"} }
func (ECDH) ExpectedInput() map[string][]string { return nil }

func (ECDH) OutputVariables() map[string][]string {
	return map[string][]string{"Alice": {"secret"}, "Bob": {"secret"}}
}

func (ECDH) Run(e *protocol.Engine) error {
	alice, bob := e.Party("Alice"), e.Party("Bob")

	e.AddProtocolStep("Key generation")
	e.Compute(alice, []string{"sk", "A"}, nil, generateKey, "sk random, A = sk·G")
	e.Compute(bob, []string{"sk", "B"}, nil, generateKey, "sk random, B = sk·G")

	e.AddProtocolStep("Key exchange")
	e.SendVariables(alice, bob, "A")
	e.SendVariables(bob, alice, "B")

	e.AddProtocolStep("Shared secret")
	e.Compute(alice, []string{"secret"}, []string{"sk", "B"}, sharedSecret, "secret = x(sk·B)")
	e.Compute(bob, []string{"secret"}, []string{"sk", "A"}, sharedSecret, "secret = x(sk·A)")
	return nil
}

func generateKey(...any) (any, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generating secp256k1 key")
	}
	return protocol.Values(sk.Serialize(), sk.PubKey().SerializeCompressed()), nil
}

// sharedSecret takes the private key and the peer's public key and returns
// the x coordinate of their product.
func sharedSecret(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, errors.Newf("expected 2 arguments, got %d", len(args))
	}
	sk, ok := args[0].([]byte)
	if !ok {
		return nil, errors.Newf("private key: expected []byte, got %T", args[0])
	}
	peer, ok := args[1].([]byte)
	if !ok {
		return nil, errors.Newf("public key: expected []byte, got %T", args[1])
	}
	pub, err := btcec.ParsePubKey(peer)
	if err != nil {
		return nil, errors.Wrap(err, "parsing peer public key")
	}
	priv, _ := btcec.PrivKeyFromBytes(sk)
	return btcec.GenerateSharedSecret(priv, pub), nil
}

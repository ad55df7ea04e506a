// Package mpc contains ready-to-run protocols built on the protocol engine.
//
// They double as examples of how protocols are written:
//
//   - Sum – every party sends its value to party_0, which adds them up.
//   - OT – RSA based 1-out-of-2 oblivious transfer (Even, Goldreich and
//     Lempel). The receiver learns exactly one of the sender's two messages
//     and the sender does not learn which.
//   - Multiplication – Gilboa's multiplication of two private inputs into
//     additive shares, running one OT per bit as a subroutine.
//   - ECDH – secp256k1 key agreement between two parties.
//
// Quick example (oblivious transfer, all parties in one process):
//
//	e := protocol.New(mpc.NewOT(mpc.DefaultOTBits))
//	defer e.Terminate()
//	err := e.SetInput(map[string]map[string]any{
//	    "Sender":   {"m0": 19, "m1": 28},
//	    "Receiver": {"b": 0},
//	})
//	...
//	err = e.Call(ctx)
//	out, _ := e.Output()
//	fmt.Println(out["Receiver"]["mb"]) // 19
//
// Every protocol is also listed in the Registry, which the command line tools
// use to look them up by name.
package mpc

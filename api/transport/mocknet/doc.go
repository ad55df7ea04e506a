// Package mocknet implements `transport.Transport` entirely in memory and is
// what the protocol engine uses when every party runs in the same process.
//
// A Network is a directory of messengers keyed by party name. A send pushes
// the encoded message straight into the receiver's inbox, so the receive that
// follows it in program order always finds the value. Receiving a variable
// that was never sent fails immediately with a
// `transport.VariableNotReceivedError` instead of blocking, which turns
// ordering mistakes in a protocol into clear errors.
//
// Values are encoded exactly as on the TCP transport, which keeps the byte
// counters of simulated and distributed runs comparable.
package mocknet

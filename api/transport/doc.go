// Package transport defines the abstraction that moves named variables
// between the parties of a protocol.
//
// The core interface is `Transport`:
//
//	Send(ctx, receiver, vars)
//	Receive(ctx, sender, names)
//	Close()
//
// A Transport does not know anything about protocols. It delivers batches of
// named values from one party name to another and makes them available to
// the receiver under exactly the names they were sent with. Values travel
// inside a small JSON envelope (see Encode and Register) so the same batch
// looks identical on every transport, which also keeps the byte counters
// reported by the protocol engine comparable between runs.
//
// Two implementations ship with the module:
//
//   - mocknet – an in-process transport used when every party runs in the
//     same process (simulated mode)
//   - tcpnet  – a TCP transport with length-prefixed frames for running
//     each party in its own process (distributed mode)
//
// Both share the Inbox type, which buffers incoming variables per
// (sender, name) pair until a matching Receive asks for them.
package transport

// Package protocol is the execution engine for multi-party protocols.
//
// A protocol is a type implementing Protocol. It names its party roles, the
// input variables each role expects and the output variables it produces,
// and describes its behaviour in Run as a sequence of declarative calls on
// the Engine:
//
//	func (p *Sum) Run(e *protocol.Engine) error {
//	    e.AddProtocolStep("Share values")
//	    e.SendVariables(e.Party("party_1"), e.Party("party_0"), "value")
//	    ...
//	}
//
// Every call is recorded as an Operation inside the current Step and
// dispatched at once to the Party objects involved. The same Run therefore
// serves two modes without change:
//
//   - simulated, where every party lives in this process and talks through
//     an in-memory mocknet network, and
//   - distributed, where each process runs a single party (see
//     Engine.SetPartyAddresses) and only performs the parts of each
//     operation that belong to that party.
//
// A protocol can run another protocol with RunSubroutine. The subroutine
// borrows the caller's parties, and therefore their transports, while a
// namespace named after the subroutine isolates its variables.
//
// Errors are sticky: the first failing operation is remembered, the rest of
// Run becomes a no-op and Call returns that error. Protocol authors can
// therefore write Run without checking every call.
package protocol

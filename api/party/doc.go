// Package party models a single participant of a protocol: its name, its
// variable store and the transport it uses to talk to the other parties.
//
// Variables live in a Store that is scoped by a stack of namespaces. When a
// protocol runs another protocol as a subroutine every participating party
// pushes the subroutine's name, so variables the subroutine defines can never
// collide with, or be read from, the caller's variables. Sends use the
// namespace-qualified name on the wire, which works because both ends of a
// send always have identical namespace stacks.
package party

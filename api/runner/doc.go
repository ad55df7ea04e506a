// Package runner executes protocol definitions end to end.
//
// RunSimulated keeps every party in the calling process on an in-memory
// network. RunParty runs a single role of a distributed execution over TCP,
// the way each process of a real deployment does. RunDistributed starts one
// RunParty per role inside the current process, which is what tests and
// local demos use to exercise the TCP transport.
package runner

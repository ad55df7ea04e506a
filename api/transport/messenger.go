package transport

import (
	"context"
	"time"
)

// DefaultReceiveTimeout bounds how long a distributed party waits for a
// variable before giving up.
const DefaultReceiveTimeout = 5 * time.Second

// DefaultDialTimeout bounds how long a distributed party keeps retrying to
// reach a peer that is not listening yet.
const DefaultDialTimeout = 10 * time.Second

// Variable is a named value in transit.
type Variable struct {
	Name  string
	Value any
}

// Transport moves batches of variables between named parties.
type Transport interface {
	// Send delivers vars to the receiver as a single message and returns the
	// number of payload bytes it accounted for.
	Send(ctx context.Context, receiver string, vars []Variable) (int, error)

	// Receive returns the variables named in names, in that order, once all
	// of them have arrived from sender. It returns the number of payload
	// bytes consumed.
	Receive(ctx context.Context, sender string, names []string) ([]Variable, int, error)

	// Close releases the transport. Subsequent calls fail with
	// ErrTransportClosed.
	Close() error
}

package transport

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrTransportClosed is returned by every operation on a closed transport.
var ErrTransportClosed = errors.New("transport closed")

// ErrUnknownType is returned when a value has no registered wire encoding.
var ErrUnknownType = errors.New("unregistered value type")

// ErrPeerUnreachable is wrapped by send failures caused by a peer that could
// not be reached or dropped the connection. The underlying network error is
// attached as secondary detail.
var ErrPeerUnreachable = errors.New("peer unreachable")

// ErrFrameTooLarge is returned for frames above MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// VariableNotReceivedError reports a receive for a variable that never
// arrived. A zero Timeout means the receive did not wait at all, which in
// simulated mode means the matching send was never issued.
type VariableNotReceivedError struct {
	Name    string
	Peer    string
	Timeout time.Duration
}

func (e *VariableNotReceivedError) Error() string {
	if e.Timeout <= 0 {
		return fmt.Sprintf("variable %q has not been received from %q, make sure it is sent before it is received", e.Name, e.Peer)
	}
	return fmt.Sprintf("variable %q was not received from %q within %s", e.Name, e.Peer, e.Timeout)
}

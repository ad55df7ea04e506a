package transport

import (
	"container/list"
	"context"
	"sync"
	"time"

	"code.hybscloud.com/iox"
	"github.com/cockroachdb/errors"
)

type inboxKey struct {
	sender string
	name   string
}

// Inbox buffers received variables until they are taken. Values are queued
// per (sender, name) so repeated sends of the same variable are consumed in
// arrival order.
type Inbox struct {
	mu     sync.Mutex
	queues map[inboxKey]*list.List
	closed bool
}

// NewInbox returns an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{queues: make(map[inboxKey]*list.List)}
}

// Put queues every entry of m.
func (in *Inbox) Put(m *Message) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return ErrTransportClosed
	}
	for _, e := range m.Vars {
		k := inboxKey{sender: m.Sender, name: e.Name}
		q, ok := in.queues[k]
		if !ok {
			q = list.New()
			in.queues[k] = q
		}
		q.PushBack(e)
	}
	return nil
}

// TryTake removes and returns one entry per name if all of them are
// available. Otherwise nothing is removed and the first missing name is
// returned.
func (in *Inbox) TryTake(sender string, names []string) ([]Entry, string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil, "", ErrTransportClosed
	}

	need := make(map[inboxKey]int, len(names))
	for _, name := range names {
		k := inboxKey{sender: sender, name: name}
		need[k]++
		q := in.queues[k]
		if q == nil || q.Len() < need[k] {
			return nil, name, nil
		}
	}

	entries := make([]Entry, len(names))
	for i, name := range names {
		k := inboxKey{sender: sender, name: name}
		q := in.queues[k]
		front := q.Front()
		entries[i] = q.Remove(front).(Entry)
		if q.Len() == 0 {
			delete(in.queues, k)
		}
	}
	return entries, "", nil
}

// Take waits up to timeout for all names to be available from sender. With a
// zero timeout it checks exactly once.
func (in *Inbox) Take(ctx context.Context, sender string, names []string, timeout time.Duration) ([]Entry, error) {
	deadline := time.Now().Add(timeout)
	var bo iox.Backoff
	for {
		entries, missing, err := in.TryTake(sender, names)
		if err != nil {
			return nil, err
		}
		if missing == "" {
			return entries, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "waiting for %q from %q", missing, sender)
		}
		if !time.Now().Before(deadline) {
			return nil, &VariableNotReceivedError{Name: missing, Peer: sender, Timeout: timeout}
		}
		bo.Wait()
	}
}

// Pending counts the buffered entries that have not been taken yet.
func (in *Inbox) Pending() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := 0
	for _, q := range in.queues {
		n += q.Len()
	}
	return n
}

// Close drops every buffered entry and rejects further puts and takes.
func (in *Inbox) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.closed = true
	in.queues = make(map[inboxKey]*list.List)
}

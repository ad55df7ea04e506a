package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put(t *testing.T, in *Inbox, sender string, vars ...Variable) {
	t.Helper()
	msg, err := NewMessage(sender, vars)
	require.NoError(t, err)
	require.NoError(t, in.Put(msg))
}

func decodeAll(t *testing.T, entries []Entry) []any {
	t.Helper()
	vars, err := DecodeEntries(entries)
	require.NoError(t, err)
	values := make([]any, len(vars))
	for i, v := range vars {
		values[i] = v.Value
	}
	return values
}

func TestInboxFIFOPerKey(t *testing.T) {
	in := NewInbox()
	put(t, in, "alice", Variable{Name: "x", Value: 1})
	put(t, in, "alice", Variable{Name: "x", Value: 2})
	put(t, in, "bob", Variable{Name: "x", Value: 3})

	entries, missing, err := in.TryTake("alice", []string{"x"})
	require.NoError(t, err)
	require.Empty(t, missing)
	assert.Equal(t, []any{1}, decodeAll(t, entries))

	entries, _, err = in.TryTake("bob", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []any{3}, decodeAll(t, entries))

	entries, _, err = in.TryTake("alice", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []any{2}, decodeAll(t, entries))
	assert.Zero(t, in.Pending())
}

func TestInboxTakeIsAllOrNothing(t *testing.T) {
	in := NewInbox()
	put(t, in, "alice", Variable{Name: "x", Value: 1})

	entries, missing, err := in.TryTake("alice", []string{"x", "y"})
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.Equal(t, "y", missing)
	assert.Equal(t, 1, in.Pending())

	// The same name twice needs two queued values.
	_, missing, err = in.TryTake("alice", []string{"x", "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", missing)
}

func TestInboxTakeWaits(t *testing.T) {
	in := NewInbox()
	go func() {
		time.Sleep(20 * time.Millisecond)
		msg, _ := NewMessage("alice", []Variable{{Name: "x", Value: "late"}})
		_ = in.Put(msg)
	}()

	entries, err := in.Take(context.Background(), "alice", []string{"x"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []any{"late"}, decodeAll(t, entries))
}

func TestInboxTakeTimeout(t *testing.T) {
	in := NewInbox()

	_, err := in.Take(context.Background(), "alice", []string{"x"}, 0)
	var nr *VariableNotReceivedError
	require.ErrorAs(t, err, &nr)
	assert.Equal(t, "x", nr.Name)
	assert.Equal(t, "alice", nr.Peer)
	assert.Contains(t, nr.Error(), "make sure it is sent")

	start := time.Now()
	_, err = in.Take(context.Background(), "alice", []string{"x"}, 30*time.Millisecond)
	require.ErrorAs(t, err, &nr)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestInboxTakeHonoursContext(t *testing.T) {
	in := NewInbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.Take(ctx, "alice", []string{"x"}, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInboxClose(t *testing.T) {
	in := NewInbox()
	put(t, in, "alice", Variable{Name: "x", Value: 1})
	in.Close()

	_, _, err := in.TryTake("alice", []string{"x"})
	assert.ErrorIs(t, err, ErrTransportClosed)
	assert.ErrorIs(t, in.Put(&Message{Sender: "alice"}), ErrTransportClosed)
}

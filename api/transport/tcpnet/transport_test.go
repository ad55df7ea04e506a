package tcpnet

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuukJonker/smpc/api/transport"
)

// pair starts two messengers on loopback ports that know each other.
func pair(t *testing.T, timeout time.Duration) (*TCPMessenger, *TCPMessenger) {
	t.Helper()
	alice, err := Listen(Config{Self: "alice", Address: "127.0.0.1:0", ReceiveTimeout: timeout, DialTimeout: time.Second})
	require.NoError(t, err)
	bob, err := Listen(Config{Self: "bob", Address: "127.0.0.1:0", ReceiveTimeout: timeout, DialTimeout: time.Second})
	require.NoError(t, err)

	peers := map[string]string{
		"alice": alice.Addr().String(),
		"bob":   bob.Addr().String(),
	}
	alice.cfg.Peers = peers
	bob.cfg.Peers = peers

	t.Cleanup(func() {
		alice.Close()
		bob.Close()
	})
	return alice, bob
}

func TestSendReceive(t *testing.T) {
	alice, bob := pair(t, 2*time.Second)
	ctx := context.Background()

	sent, err := alice.Send(ctx, "bob", []transport.Variable{
		{Name: "x", Value: 19},
		{Name: "N", Value: big.NewInt(77)},
	})
	require.NoError(t, err)

	vars, received, err := bob.Receive(ctx, "alice", []string{"x", "N"})
	require.NoError(t, err)
	assert.Equal(t, sent, received)
	assert.Equal(t, 19, vars[0].Value)
	assert.Equal(t, 0, big.NewInt(77).Cmp(vars[1].Value.(*big.Int)))

	// And back over a second connection.
	_, err = bob.Send(ctx, "alice", []transport.Variable{{Name: "y", Value: "ok"}})
	require.NoError(t, err)
	vars, _, err = alice.Receive(ctx, "bob", []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, "ok", vars[0].Value)
}

func TestMessagesKeepOrder(t *testing.T) {
	alice, bob := pair(t, 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := alice.Send(ctx, "bob", []transport.Variable{{Name: "v", Value: i}})
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		vars, _, err := bob.Receive(ctx, "alice", []string{"v"})
		require.NoError(t, err)
		assert.Equal(t, i, vars[0].Value)
	}
}

func TestReceiveTimeoutClosesTransport(t *testing.T) {
	_, bob := pair(t, 50*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	_, _, err := bob.Receive(ctx, "alice", []string{"never"})
	var notReceived *transport.VariableNotReceivedError
	require.ErrorAs(t, err, &notReceived)
	assert.Equal(t, "never", notReceived.Name)
	assert.Equal(t, 50*time.Millisecond, notReceived.Timeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	_, err = bob.Send(ctx, "alice", []transport.Variable{{Name: "x", Value: 1}})
	assert.ErrorIs(t, err, transport.ErrTransportClosed)
	_, _, err = bob.Receive(ctx, "alice", []string{"x"})
	assert.ErrorIs(t, err, transport.ErrTransportClosed)
}

func TestSendToUnknownPeer(t *testing.T) {
	alice, _ := pair(t, time.Second)

	_, err := alice.Send(context.Background(), "mallory", []transport.Variable{{Name: "x", Value: 1}})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, transport.ErrPeerUnreachable))
	assert.True(t, errors.Is(err, transport.ErrPeerUnreachable))
	assert.ErrorContains(t, err, `sending to "mallory"`)
	assert.Contains(t, fmt.Sprintf("%+v", err), "no address known")
}

func TestSendRetriesUntilPeerListens(t *testing.T) {
	alice, err := Listen(Config{Self: "alice", Address: "127.0.0.1:0", DialTimeout: 3 * time.Second})
	require.NoError(t, err)
	defer alice.Close()

	// Reserve a port for bob and release it so nothing listens there yet.
	probe, err := Listen(Config{Self: "probe", Address: "127.0.0.1:0"})
	require.NoError(t, err)
	bobAddr := probe.Addr().String()
	require.NoError(t, probe.Close())

	alice.cfg.Peers = map[string]string{"bob": bobAddr}

	bobCh := make(chan *TCPMessenger, 1)
	go func() {
		time.Sleep(200 * time.Millisecond)
		bob, err := Listen(Config{Self: "bob", Address: bobAddr, ReceiveTimeout: 3 * time.Second})
		if err != nil {
			bobCh <- nil
			return
		}
		bobCh <- bob
	}()

	_, err = alice.Send(context.Background(), "bob", []transport.Variable{{Name: "x", Value: 5}})
	require.NoError(t, err)

	bob := <-bobCh
	require.NotNil(t, bob)
	defer bob.Close()

	vars, _, err := bob.Receive(context.Background(), "alice", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 5, vars[0].Value)
}

func TestCloseIsIdempotent(t *testing.T) {
	alice, _ := pair(t, time.Second)
	require.NoError(t, alice.Close())
	require.NoError(t, alice.Close())
}

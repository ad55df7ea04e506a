package party

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuukJonker/smpc/api/transport"
	"github.com/LuukJonker/smpc/api/transport/mocknet"
)

func connected(t *testing.T, names ...string) []*Party {
	t.Helper()
	_, messengers, err := mocknet.NewMockNetwork(names...)
	require.NoError(t, err)

	parties := make([]*Party, len(names))
	for i, name := range names {
		parties[i] = New(name)
		parties[i].SetTransport(messengers[i])
	}
	return parties
}

func TestRunComputation(t *testing.T) {
	p := New("alice")
	p.Set("a", 2)
	p.Set("b", 3)

	values, err := p.RunComputation([]string{"c"}, []string{"a", "b"}, func(args ...any) (any, error) {
		return args[0].(int) * args[1].(int), nil
	}, "c = a * b")
	require.NoError(t, err)
	assert.Equal(t, []any{6}, values)

	c, err := p.Get("c")
	require.NoError(t, err)
	assert.Equal(t, 6, c)
}

func TestRunComputationMultipleOutputs(t *testing.T) {
	p := New("alice")
	p.Set("n", 7)

	_, err := p.RunComputation([]string{"q", "r"}, []string{"n"}, func(args ...any) (any, error) {
		n := args[0].(int)
		return []any{n / 2, n % 2}, nil
	}, "q, r = divmod(n, 2)")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 7, "q": 3, "r": 1}, p.Store().Snapshot())

	// A single computed variable takes a slice as is.
	_, err = p.RunComputation([]string{"pair"}, nil, func(...any) (any, error) {
		return []any{1, 2}, nil
	}, "pair")
	require.NoError(t, err)
	pair, _ := p.Get("pair")
	assert.Equal(t, []any{1, 2}, pair)
}

func TestRunComputationArity(t *testing.T) {
	p := New("alice")

	tests := []struct {
		name   string
		result any
		got    int
	}{
		{name: "scalar for two", result: 1, got: 1},
		{name: "three for two", result: []any{1, 2, 3}, got: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.RunComputation([]string{"x", "y"}, nil, func(...any) (any, error) {
				return tt.result, nil
			}, "x, y = f()")
			var arity *ArityError
			require.ErrorAs(t, err, &arity)
			assert.Equal(t, 2, arity.Expected)
			assert.Equal(t, tt.got, arity.Got)
			assert.False(t, p.Store().Has("x"))
		})
	}
}

func TestRunComputationErrors(t *testing.T) {
	p := New("alice")

	_, err := p.RunComputation([]string{"y"}, []string{"missing"}, func(...any) (any, error) { return 1, nil }, "y")
	var undefined *UndefinedVariableError
	assert.ErrorAs(t, err, &undefined)

	boom := errors.New("boom")
	_, err = p.RunComputation([]string{"y"}, nil, func(...any) (any, error) { return nil, boom }, "y")
	assert.ErrorIs(t, err, boom)
}

func TestSendReceiveVariables(t *testing.T) {
	parties := connected(t, "alice", "bob")
	alice, bob := parties[0], parties[1]
	ctx := context.Background()

	alice.Set("x", 5)
	alice.Set("y", "five")
	sent, err := alice.SendVariables(ctx, bob, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 5, "y": "five"}, sent)

	got, err := bob.ReceiveVariables(ctx, alice, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, sent, got)
	assert.Equal(t, map[string]any{"x": 5, "y": "five"}, bob.Store().Snapshot())

	as, bs := alice.Statistics(), bob.Statistics()
	assert.Equal(t, uint64(1), as.MessagesSent)
	assert.Equal(t, uint64(1), bs.MessagesReceived)
	assert.Equal(t, as.BytesSent, bs.BytesReceived)
	assert.Positive(t, as.BytesSent)

	alice.ResetStatistics()
	assert.True(t, alice.Statistics().IsZero())
}

func TestSendReceiveInsideNamespace(t *testing.T) {
	parties := connected(t, "alice", "bob")
	alice, bob := parties[0], parties[1]
	ctx := context.Background()

	bob.Set("x", "outer")
	alice.StartSubroutine("OT")
	bob.StartSubroutine("OT")

	alice.Set("x", "inner")
	_, err := alice.SendVariables(ctx, bob, []string{"x"})
	require.NoError(t, err)
	_, err = bob.ReceiveVariables(ctx, alice, []string{"x"})
	require.NoError(t, err)
	v, _ := bob.Get("x")
	assert.Equal(t, "inner", v)

	require.NoError(t, alice.EndSubroutine())
	require.NoError(t, bob.EndSubroutine())
	v, _ = bob.Get("x")
	assert.Equal(t, "outer", v)
}

func TestNamespacedNamesDoNotAlias(t *testing.T) {
	parties := connected(t, "alice", "bob")
	alice, bob := parties[0], parties[1]
	ctx := context.Background()

	alice.Set("OT_x", "top")
	_, err := alice.SendVariables(ctx, bob, []string{"OT_x"})
	require.NoError(t, err)

	alice.StartSubroutine("OT")
	bob.StartSubroutine("OT")
	alice.Set("x", "nested")
	_, err = alice.SendVariables(ctx, bob, []string{"x"})
	require.NoError(t, err)

	_, err = bob.ReceiveVariables(ctx, alice, []string{"x"})
	require.NoError(t, err)
	v, _ := bob.Get("x")
	assert.Equal(t, "nested", v)

	require.NoError(t, bob.EndSubroutine())
	_, err = bob.ReceiveVariables(ctx, alice, []string{"OT_x"})
	require.NoError(t, err)
	v, _ = bob.Get("OT_x")
	assert.Equal(t, "top", v)
}

func TestReceiveWithoutSend(t *testing.T) {
	parties := connected(t, "alice", "bob")

	_, err := parties[1].ReceiveVariables(context.Background(), parties[0], []string{"x"})
	var notReceived *transport.VariableNotReceivedError
	require.ErrorAs(t, err, &notReceived)
	assert.Equal(t, "x", notReceived.Name)
}

func TestNoTransport(t *testing.T) {
	alice, bob := New("alice"), New("bob")
	alice.Set("x", 1)

	_, err := alice.SendVariables(context.Background(), bob, []string{"x"})
	assert.Error(t, err)
	_, err = bob.ReceiveVariables(context.Background(), alice, []string{"x"})
	assert.Error(t, err)
	assert.NoError(t, alice.Close())
}

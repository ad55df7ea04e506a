package mpc

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuukJonker/smpc/api/protocol"
)

func TestGeneratePartyNames(t *testing.T) {
	assert.Equal(t, []string{"party_0", "party_1", "party_2"}, GeneratePartyNames(3))
	assert.Empty(t, GeneratePartyNames(0))
}

func TestSum(t *testing.T) {
	ctx := context.Background()

	resp, err := RunSum(ctx, &SumRequest{Values: []any{2, 2, 2, 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(8), resp.Sum.Int64())

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	resp, err = RunSum(ctx, &SumRequest{Values: []any{huge, -30, int64(10), "20"}})
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", resp.Sum.String())

	_, err = RunSum(ctx, &SumRequest{Values: []any{1}})
	assert.Error(t, err)
}

func TestSumOutputOnlyOnLeader(t *testing.T) {
	s, err := NewSum(3)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"party_0": {"sum"}}, s.OutputVariables())

	steps, err := protocol.New(s).Compile()
	require.NoError(t, err)
	assert.Equal(t, 2, protocol.CountOperations(steps, protocol.KindSend))
}

func TestOT(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		m0, m1 any
		b      int
		want   int64
	}{
		{"choose m0", 19, 28, 0, 19},
		{"choose m1", 19, 28, 1, 28},
		{"non-zero choice", 19, 28, 3, 28},
		{"negative", -7, 5, 0, -7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := RunOT(ctx, &OTRequest{M0: tc.m0, M1: tc.m1, Choice: tc.b})
			require.NoError(t, err)
			require.Equal(t, DefaultOTBits, resp.Modulus.BitLen())
			want := new(big.Int).Mod(big.NewInt(tc.want), resp.Modulus)
			assert.Equal(t, 0, want.Cmp(resp.Message), "got %s", resp.Message)
		})
	}
}

func TestOTRejectsSmallModulus(t *testing.T) {
	_, err := NewOT(512)
	assert.Error(t, err)
}

func TestMultiplication(t *testing.T) {
	ctx := context.Background()
	const l = 8
	for _, tc := range [][2]int64{{3, 5}, {0, 77}, {255, 255}, {-3, 4}, {1000, 3}} {
		resp, err := RunMultiplication(ctx, &MultiplicationRequest{Bits: l, A: tc[0], B: tc[1]})
		require.NoError(t, err)
		mod := big.NewInt(1 << l)
		want := new(big.Int).Mod(big.NewInt(tc[0]*tc[1]), mod)
		assert.Equal(t, 0, want.Cmp(resp.Product(l)), "%d·%d", tc[0], tc[1])
		assert.True(t, resp.X.Sign() >= 0 && resp.X.Cmp(mod) < 0)
		assert.True(t, resp.Y.Sign() >= 0 && resp.Y.Cmp(mod) < 0)
	}
}

func TestMultiplicationSingleBit(t *testing.T) {
	resp, err := RunMultiplication(context.Background(), &MultiplicationRequest{Bits: 1, A: 1, B: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Product(1).Int64())
}

func TestMultiplicationCompile(t *testing.T) {
	m, err := NewMultiplication(4, DefaultOTBits)
	require.NoError(t, err)
	steps, err := protocol.New(m).Compile()
	require.NoError(t, err)
	assert.Equal(t, 4, protocol.CountOperations(steps, protocol.KindSubroutine))
	assert.Equal(t, 12, protocol.CountOperations(steps, protocol.KindSend))

	_, err = NewMultiplication(0, DefaultOTBits)
	assert.Error(t, err)
}

func TestECDH(t *testing.T) {
	e := protocol.New(ECDH{})
	defer e.Terminate()
	require.NoError(t, e.SetInput(nil))
	require.NoError(t, e.Call(context.Background()))

	out, err := e.Output()
	require.NoError(t, err)
	a, ok := out["Alice"]["secret"].([]byte)
	require.True(t, ok)
	assert.Len(t, a, 32)
	assert.Equal(t, a, out["Bob"]["secret"])
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"ECDH", "Multiplication", "OT", "Sum"}, Names())

	def, err := Build("sum", map[string]int{"N": 5})
	require.NoError(t, err)
	assert.Len(t, def.PartyNames(), 5)

	def, err = Build(MultiplicationName, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMultiplicationBits, def.(*Multiplication).Bits())

	_, err = Build("OT", map[string]int{"l": 3})
	assert.Error(t, err)

	_, err = Build("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestToBigInt(t *testing.T) {
	for _, v := range []any{42, int32(42), uint64(42), 42.0, "42", "0x2a", big.NewInt(42)} {
		b, err := ToBigInt(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, int64(42), b.Int64())
	}
	for _, v := range []any{4.2, "four", true, nil} {
		_, err := ToBigInt(v)
		assert.Error(t, err, "%v", v)
	}
}

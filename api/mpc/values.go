package mpc

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"

	"github.com/cockroachdb/errors"
)

// toBig converts the integer representations found in protocol inputs to a
// fresh *big.Int. Inputs may come from Go code, JSON or YAML, so integral
// floats and decimal strings are accepted as well.
func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil integer")
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, errors.Newf("%v is not an integer", n)
		}
		b, _ := big.NewFloat(n).Int(nil)
		return b, nil
	case json.Number:
		return parseBig(string(n))
	case string:
		return parseBig(n)
	}
	return nil, errors.Newf("cannot use %T as an integer", v)
}

func parseBig(s string) (*big.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, errors.Newf("%q is not an integer", s)
	}
	return b, nil
}

// bigs converts every argument with toBig.
func bigs(args []any) ([]*big.Int, error) {
	out := make([]*big.Int, len(args))
	for i, a := range args {
		b, err := toBig(a)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		out[i] = b
	}
	return out, nil
}

// bigFunc adapts a computation over big integers to a protocol.Func.
func bigFunc(f func(args []*big.Int) (any, error)) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		values, err := bigs(args)
		if err != nil {
			return nil, err
		}
		return f(values)
	}
}

// randomBelow returns a uniform random integer in [0, max).
func randomBelow(max *big.Int) (*big.Int, error) {
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, errors.Wrap(err, "drawing random integer")
	}
	return n, nil
}

// ToBigInt converts a protocol value to a *big.Int, accepting the same
// representations as protocol inputs.
func ToBigInt(v any) (*big.Int, error) {
	return toBig(v)
}

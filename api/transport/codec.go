package transport

import (
	"encoding/json"
	"math/big"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
)

// Reserved envelope type names.
const (
	typeNil  = "nil"
	typeList = "list"
	typeMap  = "map"
)

// envelope is the wire form of a single value.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type codec struct {
	name   string
	decode func(json.RawMessage) (any, error)
}

type registry struct {
	mu     sync.RWMutex
	byName map[string]codec
	byType map[reflect.Type]string
}

var types = &registry{
	byName: make(map[string]codec),
	byType: make(map[reflect.Type]string),
}

func init() {
	Register[bool]("bool")
	Register[int]("int")
	Register[int64]("int64")
	Register[uint64]("uint64")
	Register[float64]("float64")
	Register[string]("string")
	Register[[]byte]("bytes")
	Register[*big.Int]("bigint")
	Register[[]int]("ints")
	Register[[]int64]("int64s")
	Register[[]string]("strings")
	Register[[]*big.Int]("bigints")
	Register[[][]byte]("byteslices")
}

// Register makes values of type T transportable under the given wire name.
// T must round-trip through encoding/json. Registering a name or a type twice
// panics, as does using one of the reserved names nil, list or map.
func Register[T any](name string) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if name == typeNil || name == typeList || name == typeMap {
		panic("transport: reserved type name " + name)
	}

	types.mu.Lock()
	defer types.mu.Unlock()
	if _, dup := types.byName[name]; dup {
		panic("transport: duplicate registration of type name " + name)
	}
	if prev, dup := types.byType[t]; dup {
		panic("transport: type " + t.String() + " already registered as " + prev)
	}
	types.byName[name] = codec{
		name: name,
		decode: func(raw json.RawMessage) (any, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	types.byType[t] = name
}

// Encode serialises a value into its JSON envelope. Nil, []any and
// map[string]any are handled structurally; everything else must be
// registered.
func Encode(v any) (json.RawMessage, error) {
	env := envelope{}
	switch val := v.(type) {
	case nil:
		env.Type = typeNil
	case []any:
		items := make([]json.RawMessage, len(val))
		for i, item := range val {
			raw, err := Encode(item)
			if err != nil {
				return nil, errors.Wrapf(err, "list item %d", i)
			}
			items[i] = raw
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, errors.Wrap(err, "encoding list")
		}
		env.Type, env.Data = typeList, data
	case map[string]any:
		items := make(map[string]json.RawMessage, len(val))
		for k, item := range val {
			raw, err := Encode(item)
			if err != nil {
				return nil, errors.Wrapf(err, "map entry %q", k)
			}
			items[k] = raw
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, errors.Wrap(err, "encoding map")
		}
		env.Type, env.Data = typeMap, data
	default:
		types.mu.RLock()
		name, ok := types.byType[reflect.TypeOf(v)]
		types.mu.RUnlock()
		if !ok {
			return nil, errors.Wrapf(ErrUnknownType, "cannot encode %T", v)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", name)
		}
		env.Type, env.Data = name, data
	}
	return json.Marshal(env)
}

// Decode is the inverse of Encode.
func Decode(raw json.RawMessage) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "decoding envelope")
	}

	switch env.Type {
	case typeNil:
		return nil, nil
	case typeList:
		var items []json.RawMessage
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, errors.Wrap(err, "decoding list")
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := Decode(item)
			if err != nil {
				return nil, errors.Wrapf(err, "list item %d", i)
			}
			out[i] = v
		}
		return out, nil
	case typeMap:
		var items map[string]json.RawMessage
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, errors.Wrap(err, "decoding map")
		}
		out := make(map[string]any, len(items))
		for k, item := range items {
			v, err := Decode(item)
			if err != nil {
				return nil, errors.Wrapf(err, "map entry %q", k)
			}
			out[k] = v
		}
		return out, nil
	}

	types.mu.RLock()
	c, ok := types.byName[env.Type]
	types.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "cannot decode %q", env.Type)
	}
	v, err := c.decode(env.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c.name)
	}
	return v, nil
}

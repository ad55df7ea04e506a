package mpc

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/protocol"
)

// ErrUnknownProtocol is returned when a name is not in the Registry.
var ErrUnknownProtocol = errors.New("unknown protocol")

// Factory builds a protocol definition from integer parameters. Missing
// parameters take their defaults.
type Factory func(params map[string]int) (protocol.Protocol, error)

// Entry describes a registered protocol.
type Entry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Defaults    map[string]int `json:"parameters"`
	build       func(params map[string]int) (protocol.Protocol, error)
}

// Factory returns a factory applying the entry's defaults.
func (e Entry) Factory() Factory {
	return func(params map[string]int) (protocol.Protocol, error) {
		merged := make(map[string]int, len(e.Defaults))
		for k, v := range e.Defaults {
			merged[k] = v
		}
		for k, v := range params {
			k = strings.ToLower(k)
			if _, ok := e.Defaults[k]; !ok {
				return nil, errors.Newf("protocol %s has no parameter %q", e.Name, k)
			}
			merged[k] = v
		}
		return e.build(merged)
	}
}

// Registry lists the protocols of this package by name.
var Registry = map[string]Entry{
	SumName: {
		Name:        SumName,
		Description: "Sum of one private value per party, revealed to party_0",
		Defaults:    map[string]int{"n": 3},
		build: func(p map[string]int) (protocol.Protocol, error) {
			return NewSum(p["n"])
		},
	},
	OTName: {
		Name:        OTName,
		Description: "RSA based 1-out-of-2 oblivious transfer",
		Defaults:    map[string]int{"bits": DefaultOTBits},
		build: func(p map[string]int) (protocol.Protocol, error) {
			return NewOT(p["bits"])
		},
	},
	MultiplicationName: {
		Name:        MultiplicationName,
		Description: "Gilboa multiplication of two private inputs into additive shares",
		Defaults:    map[string]int{"l": DefaultMultiplicationBits, "bits": DefaultOTBits},
		build: func(p map[string]int) (protocol.Protocol, error) {
			return NewMultiplication(p["l"], p["bits"])
		},
	},
	ECDHName: {
		Name:        ECDHName,
		Description: "Diffie-Hellman key agreement on secp256k1",
		Defaults:    map[string]int{},
		build: func(map[string]int) (protocol.Protocol, error) {
			return ECDH{}, nil
		},
	},
}

// Lookup finds a registered protocol. Names are matched case-insensitively.
func Lookup(name string) (Entry, error) {
	if e, ok := Registry[name]; ok {
		return e, nil
	}
	for k, e := range Registry {
		if strings.EqualFold(k, name) {
			return e, nil
		}
	}
	return Entry{}, errors.Wrapf(ErrUnknownProtocol, "%q", name)
}

// Build looks up name and builds it with params.
func Build(name string, params map[string]int) (protocol.Protocol, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.Factory()(params)
}

// Names returns the registered protocol names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for k := range Registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

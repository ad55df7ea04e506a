package party

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// NamespaceSeparator joins namespace tags and the variable name in qualified
// names.
const NamespaceSeparator = "_"

type storeKey struct {
	namespace string
	name      string
}

// Store holds a party's variables, scoped by a stack of namespace tags.
type Store struct {
	owner  string
	path   []string
	values map[storeKey]any
}

// NewStore returns an empty store owned by the named party.
func NewStore(owner string) *Store {
	return &Store{owner: owner, values: make(map[storeKey]any)}
}

// scope identifies the current namespace exactly. The separator may appear
// inside tags, so tags are delimited with a NUL byte instead.
func (s *Store) scope() string {
	var b strings.Builder
	for _, tag := range s.path {
		b.WriteByte(0)
		b.WriteString(tag)
	}
	return b.String()
}

// Set assigns a variable in the current namespace.
func (s *Store) Set(name string, value any) {
	s.values[storeKey{namespace: s.scope(), name: name}] = value
}

// Get reads a variable from the current namespace.
func (s *Store) Get(name string) (any, error) {
	v, ok := s.values[storeKey{namespace: s.scope(), name: name}]
	if !ok {
		return nil, &UndefinedVariableError{Party: s.owner, Name: name, Namespace: s.Namespace()}
	}
	return v, nil
}

// Has reports whether name is defined in the current namespace.
func (s *Store) Has(name string) bool {
	_, ok := s.values[storeKey{namespace: s.scope(), name: name}]
	return ok
}

// Delete removes a variable from the current namespace.
func (s *Store) Delete(name string) {
	delete(s.values, storeKey{namespace: s.scope(), name: name})
}

// Push enters a nested namespace.
func (s *Store) Push(tag string) {
	s.path = append(s.path, tag)
}

// Pop leaves the innermost namespace, discarding every variable defined in
// it or in namespaces nested below it, and returns its tag.
func (s *Store) Pop() (string, error) {
	if len(s.path) == 0 {
		return "", errors.Newf("party %q: namespace stack is empty", s.owner)
	}
	scope := s.scope()
	for k := range s.values {
		if k.namespace == scope || strings.HasPrefix(k.namespace, scope+"\x00") {
			delete(s.values, k)
		}
	}
	tag := s.path[len(s.path)-1]
	s.path = s.path[:len(s.path)-1]
	return tag, nil
}

// Depth returns the number of pushed namespaces.
func (s *Store) Depth() int {
	return len(s.path)
}

// Namespace returns a copy of the namespace stack, outermost first.
func (s *Store) Namespace() []string {
	return append([]string(nil), s.path...)
}

// Qualify prefixes name with the current namespace path.
func (s *Store) Qualify(name string) string {
	if len(s.path) == 0 {
		return name
	}
	return strings.Join(s.path, NamespaceSeparator) + NamespaceSeparator + name
}

var wireEscaper = strings.NewReplacer(`\`, `\\`, NamespaceSeparator, `\`+NamespaceSeparator)

// WireName is the name under which a variable of the current namespace
// travels between parties. It reads like Qualify, but separators inside
// tags and names are escaped so a top-level "OT_x" never meets "x" inside
// the OT namespace.
func (s *Store) WireName(name string) string {
	parts := make([]string, 0, len(s.path)+1)
	for _, tag := range s.path {
		parts = append(parts, wireEscaper.Replace(tag))
	}
	parts = append(parts, wireEscaper.Replace(name))
	return strings.Join(parts, NamespaceSeparator)
}

// Names lists the variables defined in the current namespace, sorted.
func (s *Store) Names() []string {
	scope := s.scope()
	var names []string
	for k := range s.values {
		if k.namespace == scope {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the variables of the current namespace.
func (s *Store) Snapshot() map[string]any {
	scope := s.scope()
	out := make(map[string]any)
	for k, v := range s.values {
		if k.namespace == scope {
			out[k.name] = v
		}
	}
	return out
}

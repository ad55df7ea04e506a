package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetSet(t *testing.T) {
	s := NewStore("alice")
	s.Set("x", 1)

	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, s.Has("x"))

	_, err = s.Get("y")
	var undefined *UndefinedVariableError
	require.ErrorAs(t, err, &undefined)
	assert.Equal(t, "y", undefined.Name)
	assert.Equal(t, "alice", undefined.Party)
}

func TestStoreNamespaceIsolation(t *testing.T) {
	s := NewStore("alice")
	s.Set("x", "outer")

	s.Push("OT")
	assert.False(t, s.Has("x"))
	s.Set("x", "inner")
	assert.Equal(t, "OT_x", s.Qualify("x"))
	assert.Equal(t, "OT_x", s.WireName("x"))

	s.Push("Inner")
	assert.Equal(t, "OT_Inner_x", s.Qualify("x"))
	s.Set("deep", true)
	_, err := s.Get("x")
	var undefined *UndefinedVariableError
	require.ErrorAs(t, err, &undefined)
	assert.Equal(t, []string{"OT", "Inner"}, undefined.Namespace)
	assert.Contains(t, err.Error(), "OT_Inner")

	tag, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "Inner", tag)
	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "inner", v)

	_, err = s.Pop()
	require.NoError(t, err)
	v, err = s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "outer", v)
	assert.Zero(t, s.Depth())
}

func TestStorePopDiscardsNamespace(t *testing.T) {
	s := NewStore("alice")
	s.Push("OT")
	s.Set("k", 1)
	s.Push("Nested")
	s.Set("j", 2)
	_, err := s.Pop()
	require.NoError(t, err)
	_, err = s.Pop()
	require.NoError(t, err)

	s.Push("OT")
	assert.False(t, s.Has("k"))
	s.Push("Nested")
	assert.False(t, s.Has("j"))
}

func TestStorePopEmpty(t *testing.T) {
	s := NewStore("alice")
	_, err := s.Pop()
	assert.Error(t, err)
}

func TestStoreTagsDoNotCollide(t *testing.T) {
	s := NewStore("alice")
	s.Push("a_b")
	s.Set("x", 1)
	_, err := s.Pop()
	require.NoError(t, err)

	// Same qualified name, different path.
	s.Push("a")
	s.Push("b")
	assert.False(t, s.Has("x"))
	assert.Equal(t, "a_b_x", s.Qualify("x"))

	s2 := NewStore("bob")
	s2.Set("x", "root")
	s2.Push("")
	assert.False(t, s2.Has("x"))
}

func TestStoreNamesAndSnapshot(t *testing.T) {
	s := NewStore("alice")
	s.Set("b", 2)
	s.Set("a", 1)
	s.Push("sub")
	s.Set("c", 3)

	assert.Equal(t, []string{"c"}, s.Names())
	_, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, s.Snapshot())

	s.Delete("a")
	assert.False(t, s.Has("a"))
}

func TestWireNameEscapesSeparators(t *testing.T) {
	s := NewStore("alice")
	top := s.WireName("OT_x")
	assert.Equal(t, `OT\_x`, top)

	s.Push("OT")
	assert.NotEqual(t, top, s.WireName("x"))
	s.Push(`a\`)
	assert.Equal(t, `OT_a\\_x`, s.WireName("x"))
	_, err := s.Pop()
	require.NoError(t, err)
	assert.NotEqual(t, s.WireName(`a\_x`), `OT_a\\_x`)
}

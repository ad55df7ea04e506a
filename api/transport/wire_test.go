package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	msg, err := NewMessage("alice", []Variable{
		{Name: "x", Value: 3},
		{Name: "N", Value: big.NewInt(77)},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := WriteFrame(&buf, msg)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)

	// A second frame on the same stream.
	_, err = WriteFrame(&buf, &Message{Sender: "bob"})
	require.NoError(t, err)

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Sender)
	assert.Equal(t, msg.Size(), got.Size())

	vars, err := DecodeEntries(got.Vars)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, Variable{Name: "x", Value: 3}, vars[0])
	assert.Equal(t, 0, big.NewInt(77).Cmp(vars[1].Value.(*big.Int)))

	second, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "bob", second.Sender)

	_, err = ReadFrame(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameRejectsOversizedFrames(t *testing.T) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)

	_, err := ReadFrame(bytes.NewReader(prefix[:]))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteFrame(&buf, &Message{Sender: "alice"})
	require.NoError(t, err)

	_, err = ReadFrame(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestMessageSize(t *testing.T) {
	msg, err := NewMessage("alice", []Variable{{Name: "ab", Value: "c"}})
	require.NoError(t, err)
	assert.Equal(t, 2+len(msg.Vars[0].Value), msg.Size())
}

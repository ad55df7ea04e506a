package transport

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// MaxFrameSize is the largest message a stream transport accepts.
const MaxFrameSize = 16 << 20

// Entry is one encoded variable inside a Message.
type Entry struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Message is the unit exchanged between two parties: every variable of one
// send call, tagged with the sender's party name.
type Message struct {
	Sender string  `json:"sender"`
	Vars   []Entry `json:"vars"`
}

// NewMessage encodes vars into a message from sender.
func NewMessage(sender string, vars []Variable) (*Message, error) {
	msg := &Message{Sender: sender, Vars: make([]Entry, len(vars))}
	for i, v := range vars {
		raw, err := Encode(v.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", v.Name)
		}
		msg.Vars[i] = Entry{Name: v.Name, Value: raw}
	}
	return msg, nil
}

// Size is the payload size used for statistics: the name and encoded value
// length of every entry.
func (m *Message) Size() int {
	return EntriesSize(m.Vars)
}

// EntriesSize sums the payload size of the given entries.
func EntriesSize(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += len(e.Name) + len(e.Value)
	}
	return n
}

// DecodeEntries turns received entries back into variables.
func DecodeEntries(entries []Entry) ([]Variable, error) {
	vars := make([]Variable, len(entries))
	for i, e := range entries {
		v, err := Decode(e.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", e.Name)
		}
		vars[i] = Variable{Name: e.Name, Value: v}
	}
	return vars, nil
}

// WriteFrame writes m as a 4-byte big-endian length followed by its JSON
// body and returns the number of bytes written.
func WriteFrame(w io.Writer, m *Message) (int, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return 0, errors.Wrap(err, "marshaling message")
	}
	if len(body) > MaxFrameSize {
		return 0, errors.Wrapf(ErrFrameTooLarge, "%d bytes", len(body))
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	n, err := w.Write(frame)
	if err != nil {
		return n, errors.Wrap(err, "writing frame")
	}
	return n, nil
}

// ReadFrame reads one frame written by WriteFrame. A clean end of stream
// before the length prefix is reported as io.EOF.
func ReadFrame(r io.Reader) (*Message, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "reading frame length")
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "reading frame body")
	}

	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshaling message")
	}
	return &m, nil
}

// internal/proto/message.go

package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version is the only frame layout this package speaks.
const Version uint8 = 1

// FrameSize is the encoded size of every Message.
//
//	offset  size  field
//	0       1     version
//	1       1     kind
//	2       2     reserved, always zero
//	4       4     pid (int32, big endian)
//	8       4     time_ms (uint32, big endian)
const FrameSize = 12

var (
	ErrVersion = errors.New("proto: unsupported frame version")
	ErrKind    = errors.New("proto: unknown message kind")
)

// Kind tags what a Message means.
type Kind uint8

const (
	KindRun Kind = iota + 1
	KindAck
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindRun:
		return "RUN"
	case KindAck:
		return "ACK"
	case KindDone:
		return "DONE"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return k >= KindRun && k <= KindDone
}

// Message is the three-field record exchanged between a client and the driver.
// On RUN, TimeMS is the requested duration; on ACK the simulated admission
// time; on DONE the simulated retirement time.
type Message struct {
	PID    int32
	Kind   Kind
	TimeMS uint32
}

// MarshalBinary encodes m into a fixed-size frame.
func (m Message) MarshalBinary() ([]byte, error) {
	if !m.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrKind, m.Kind)
	}
	buf := make([]byte, FrameSize)
	buf[0] = Version
	buf[1] = byte(m.Kind)
	binary.BigEndian.PutUint32(buf[4:8], uint32(m.PID))
	binary.BigEndian.PutUint32(buf[8:12], m.TimeMS)
	return buf, nil
}

// UnmarshalBinary decodes a frame produced by MarshalBinary.
func (m *Message) UnmarshalBinary(buf []byte) error {
	if len(buf) != FrameSize {
		return fmt.Errorf("proto: frame is %d bytes, want %d", len(buf), FrameSize)
	}
	if buf[0] != Version {
		return fmt.Errorf("%w: %d", ErrVersion, buf[0])
	}
	kind := Kind(buf[1])
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrKind, buf[1])
	}
	m.Kind = kind
	m.PID = int32(binary.BigEndian.Uint32(buf[4:8]))
	m.TimeMS = binary.BigEndian.Uint32(buf[8:12])
	return nil
}

// Write sends one frame. A short write is reported as io.ErrShortWrite.
func Write(w io.Writer, m Message) error {
	buf, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// Read receives one frame. A truncated frame yields io.ErrUnexpectedEOF.
func Read(r io.Reader) (Message, error) {
	var m Message
	buf := make([]byte, FrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return m, err
	}
	err := m.UnmarshalBinary(buf)
	return m, err
}

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize caps a single framed message. Anything larger than 1 MiB
// is a corrupt stream, not a real message.
const MaxFrameSize = 1 << 20

// ReadFrame reads one length-prefixed message from r.
func ReadFrame(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, fmt.Errorf("failed to read message length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return Message{}, fmt.Errorf("message too large: %d bytes", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, fmt.Errorf("failed to read message body: %w", err)
	}
	return Unmarshal(body)
}

// WriteFrame writes one length-prefixed message to w.
func WriteFrame(w io.Writer, m Message) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return nil
}

// RelayFrame reads one raw frame from r and writes it to w without
// decoding it. The native-messaging relay forwards frames it does not
// need to understand.
func RelayFrame(r io.Reader, w io.Writer) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return fmt.Errorf("message too large: %d bytes", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

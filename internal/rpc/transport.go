package rpc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// frameIO reads and writes 4-byte length-prefixed frames over a byte stream.
// One frame carries exactly one message.
type frameIO struct {
	rw       io.ReadWriter
	maxFrame int
	lenBuf   [4]byte
}

func newFrameIO(rw io.ReadWriter, maxFrame int) *frameIO {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &frameIO{rw: rw, maxFrame: maxFrame}
}

// readFrame reads the next frame payload. io.EOF is returned untouched on a
// clean close between frames so callers can tell shutdown from corruption.
func (f *frameIO) readFrame() ([]byte, error) {
	if _, err := io.ReadFull(f.rw, f.lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("op=rpc.transport.read: %w", err)
	}
	n := binary.BigEndian.Uint32(f.lenBuf[:])
	if int(n) > f.maxFrame {
		return nil, fmt.Errorf("op=rpc.transport.read: frame of %d bytes exceeds limit %d", n, f.maxFrame)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.rw, buf); err != nil {
		return nil, fmt.Errorf("op=rpc.transport.read: %w", err)
	}
	return buf, nil
}

// writeFrame writes one frame: length prefix then payload.
func (f *frameIO) writeFrame(payload []byte) error {
	binary.BigEndian.PutUint32(f.lenBuf[:], uint32(len(payload)))
	if _, err := f.rw.Write(f.lenBuf[:]); err != nil {
		return fmt.Errorf("op=rpc.transport.write: %w", err)
	}
	if _, err := f.rw.Write(payload); err != nil {
		return fmt.Errorf("op=rpc.transport.write: %w", err)
	}
	return nil
}

package rpc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer encodes one framed message into an in-memory buffer. Buffer writes
// cannot fail, so the encode methods return nothing; the frame is handed to
// the transport in one piece when the message is complete.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with an empty frame buffer.
func NewWriter() *Writer { return &Writer{buf: make([]byte, 0, 256)} }

// Reset discards the buffered frame so the Writer can encode a new message.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Bytes returns the encoded frame payload.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteMessageBegin encodes the strict-versioned message header.
func (w *Writer) WriteMessageBegin(name string, typ MessageType, seq int32) {
	w.WriteI32(int32(uint32(version1) | uint32(typ)))
	w.WriteString(name)
	w.WriteI32(seq)
}

// WriteFieldBegin encodes a struct field header.
func (w *Writer) WriteFieldBegin(typ Type, id int16) {
	w.WriteI8(int8(typ))
	w.WriteI16(id)
}

// WriteFieldStop terminates the field list of a struct.
func (w *Writer) WriteFieldStop() { w.WriteI8(int8(TypeStop)) }

// WriteListBegin encodes a list header.
func (w *Writer) WriteListBegin(elem Type, size int) {
	w.WriteI8(int8(elem))
	w.WriteI32(int32(size))
}

// WriteBool encodes a bool as a single byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteI8(1)
	} else {
		w.WriteI8(0)
	}
}

// WriteI8 encodes a signed byte.
func (w *Writer) WriteI8(v int8) { w.buf = append(w.buf, byte(v)) }

// WriteI16 encodes a big-endian 16-bit integer.
func (w *Writer) WriteI16(v int16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

// WriteI32 encodes a big-endian 32-bit integer.
func (w *Writer) WriteI32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// WriteI64 encodes a big-endian 64-bit integer.
func (w *Writer) WriteI64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// WriteDouble encodes an IEEE-754 double.
func (w *Writer) WriteDouble(v float64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// WriteString encodes a length-prefixed string.
func (w *Writer) WriteString(v string) {
	w.WriteI32(int32(len(v)))
	w.buf = append(w.buf, v...)
}

// Reader decodes one framed message from its payload bytes.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over a frame payload.
func NewReader(frame []byte) *Reader { return &Reader{buf: frame} }

func (r *Reader) need(n int) error {
	if r.off+n > len(r.buf) {
		return fmt.Errorf("op=rpc.read: frame truncated at offset %d (need %d of %d)", r.off, n, len(r.buf))
	}
	return nil
}

// ReadMessageBegin decodes the strict-versioned message header.
func (r *Reader) ReadMessageBegin() (name string, typ MessageType, seq int32, err error) {
	head, err := r.ReadI32()
	if err != nil {
		return "", 0, 0, err
	}
	if uint32(head)&versionMask != version1 {
		return "", 0, 0, fmt.Errorf("op=rpc.read: bad protocol version %#08x", uint32(head))
	}
	typ = MessageType(uint32(head) &^ versionMask)
	if name, err = r.ReadString(); err != nil {
		return "", 0, 0, err
	}
	if seq, err = r.ReadI32(); err != nil {
		return "", 0, 0, err
	}
	return name, typ, seq, nil
}

// ReadFieldBegin decodes a struct field header. A TypeStop return marks the
// end of the struct; no field id follows it.
func (r *Reader) ReadFieldBegin() (Type, int16, error) {
	b, err := r.ReadI8()
	if err != nil {
		return 0, 0, err
	}
	typ := Type(b)
	if typ == TypeStop {
		return TypeStop, 0, nil
	}
	id, err := r.ReadI16()
	if err != nil {
		return 0, 0, err
	}
	return typ, id, nil
}

// ReadListBegin decodes a list header.
func (r *Reader) ReadListBegin() (Type, int, error) {
	b, err := r.ReadI8()
	if err != nil {
		return 0, 0, err
	}
	n, err := r.ReadI32()
	if err != nil {
		return 0, 0, err
	}
	if n < 0 {
		return 0, 0, fmt.Errorf("op=rpc.read: negative list size %d", n)
	}
	return Type(b), int(n), nil
}

// ReadBool decodes a bool.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadI8()
	return b == 1, err
}

// ReadI8 decodes a signed byte.
func (r *Reader) ReadI8() (int8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := int8(r.buf[r.off])
	r.off++
	return v, nil
}

// ReadI16 decodes a big-endian 16-bit integer.
func (r *Reader) ReadI16() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(r.buf[r.off:]))
	r.off += 2
	return v, nil
}

// ReadI32 decodes a big-endian 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v, nil
}

// ReadI64 decodes a big-endian 64-bit integer.
func (r *Reader) ReadI64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v, nil
}

// ReadDouble decodes an IEEE-754 double.
func (r *Reader) ReadDouble() (float64, error) {
	v, err := r.ReadI64()
	return math.Float64frombits(uint64(v)), err
}

// ReadString decodes a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadI32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("op=rpc.read: negative string length %d", n)
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	v := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return v, nil
}

// Skip consumes and discards a value of the given wire type. Unknown field
// ids decode through here so that schema evolution stays field-id based.
func (r *Reader) Skip(typ Type) error {
	switch typ {
	case TypeBool, TypeByte:
		_, err := r.ReadI8()
		return err
	case TypeI16:
		_, err := r.ReadI16()
		return err
	case TypeI32:
		_, err := r.ReadI32()
		return err
	case TypeI64, TypeDouble:
		_, err := r.ReadI64()
		return err
	case TypeString:
		_, err := r.ReadString()
		return err
	case TypeStruct:
		for {
			ft, _, err := r.ReadFieldBegin()
			if err != nil {
				return err
			}
			if ft == TypeStop {
				return nil
			}
			if err := r.Skip(ft); err != nil {
				return err
			}
		}
	case TypeList, TypeSet:
		elem, n, err := r.ReadListBegin()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := r.Skip(elem); err != nil {
				return err
			}
		}
		return nil
	case TypeMap:
		kt, err := r.ReadI8()
		if err != nil {
			return err
		}
		vt, err := r.ReadI8()
		if err != nil {
			return err
		}
		n, err := r.ReadI32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if err := r.Skip(Type(kt)); err != nil {
				return err
			}
			if err := r.Skip(Type(vt)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("op=rpc.read: cannot skip unknown type %d", typ)
	}
}

// Package rpc implements the framed binary RPC protocol shared by all
// BuzzBlog services: a length-prefixed transport, the binary codec for
// struct/list/scalar values, a connection-per-goroutine server, and a
// blocking synchronous client.
//
// The wire format is compatible with the Thrift binary protocol: every
// message carries a (method name, message type, sequence id) header, struct
// fields are (type, id, value) triples terminated by a stop byte, and
// failures outside the declared exception set of a method are reported as a
// generic ApplicationException.
package rpc

// Type identifies the wire type of a value.
type Type int8

// Wire type ids.
const (
	TypeStop   Type = 0
	TypeBool   Type = 2
	TypeByte   Type = 3
	TypeDouble Type = 4
	TypeI16    Type = 6
	TypeI32    Type = 8
	TypeI64    Type = 10
	TypeString Type = 11
	TypeStruct Type = 12
	TypeMap    Type = 13
	TypeSet    Type = 14
	TypeList   Type = 15
)

// MessageType identifies the kind of a framed message.
type MessageType int32

// Message types.
const (
	MessageCall      MessageType = 1
	MessageReply     MessageType = 2
	MessageException MessageType = 3
	MessageOneway    MessageType = 4
)

// version1 is the strict protocol version marker carried in the high bits of
// the first word of every message header.
const version1 = 0x80010000

// versionMask extracts the version marker from the first header word.
const versionMask = 0xffff0000

// DefaultMaxFrameSize bounds the size of a single framed message. Frames
// larger than this are rejected before allocation.
const DefaultMaxFrameSize = 16 * 1024 * 1024

// Writable is implemented by every wire struct that can be encoded.
type Writable interface {
	Write(w *Writer)
}

// Readable is implemented by every wire struct that can be decoded.
type Readable interface {
	Read(r *Reader) error
}

package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripsScalars(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	w.WriteBool(true)
	w.WriteI8(-7)
	w.WriteI16(-1234)
	w.WriteI32(1 << 20)
	w.WriteI64(-(1 << 40))
	w.WriteDouble(3.25)
	w.WriteString("héllo")

	r := NewReader(w.Bytes())
	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	by, err := r.ReadI8()
	require.NoError(t, err)
	assert.Equal(t, int8(-7), by)
	i16, err := r.ReadI16()
	require.NoError(t, err)
	assert.Equal(t, int16(-1234), i16)
	i32, err := r.ReadI32()
	require.NoError(t, err)
	assert.Equal(t, int32(1<<20), i32)
	i64, err := r.ReadI64()
	require.NoError(t, err)
	assert.Equal(t, int64(-(1<<40)), i64)
	d, err := r.ReadDouble()
	require.NoError(t, err)
	assert.Equal(t, 3.25, d)
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)
}

func TestMessageHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	w.WriteMessageBegin("get", MessageCall, 42)

	name, typ, seq, err := NewReader(w.Bytes()).ReadMessageBegin()
	require.NoError(t, err)
	assert.Equal(t, "get", name)
	assert.Equal(t, MessageCall, typ)
	assert.Equal(t, int32(42), seq)
}

func TestMessageHeaderRejectsUnversionedPeer(t *testing.T) {
	t.Parallel()

	// An old-style unframed header starts with the name length, not the
	// version word.
	w := NewWriter()
	w.WriteI32(3)

	_, _, _, err := NewReader(w.Bytes()).ReadMessageBegin()
	require.ErrorContains(t, err, "bad protocol version")
}

func TestSkipDiscardsUnknownFields(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	// Unknown struct field carrying a nested struct.
	w.WriteFieldBegin(TypeStruct, 9)
	w.WriteFieldBegin(TypeList, 1)
	w.WriteListBegin(TypeI32, 2)
	w.WriteI32(1)
	w.WriteI32(2)
	w.WriteFieldBegin(TypeString, 2)
	w.WriteString("ignored")
	w.WriteFieldStop()
	// Known field after the unknown one.
	w.WriteFieldBegin(TypeI32, 1)
	w.WriteI32(77)
	w.WriteFieldStop()

	r := NewReader(w.Bytes())
	got := int32(0)
	for {
		ft, id, err := r.ReadFieldBegin()
		require.NoError(t, err)
		if ft == TypeStop {
			break
		}
		if id == 1 && ft == TypeI32 {
			got, err = r.ReadI32()
			require.NoError(t, err)
			continue
		}
		require.NoError(t, r.Skip(ft))
	}
	assert.Equal(t, int32(77), got)
}

func TestReaderRejectsTruncatedFrame(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	w.WriteString("truncate me")
	frame := w.Bytes()

	_, err := NewReader(frame[:len(frame)-3]).ReadString()
	require.ErrorContains(t, err, "frame truncated")
}

func TestApplicationExceptionRoundTrip(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	NewApplicationException(ExcUnknownMethod, "unknown method: nope").Write(w)

	got := &ApplicationException{}
	require.NoError(t, got.Read(NewReader(w.Bytes())))
	assert.Equal(t, ExcUnknownMethod, got.Code)
	assert.Equal(t, "unknown method: nope", got.Message)
}

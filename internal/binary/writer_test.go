package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriter_TracksOffset(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSafeWriter(&buf)

	require.NoError(t, sw.WriteBytes([]byte{0x01, 0x02}))
	require.NoError(t, sw.WriteString("abc"))
	assert.Equal(t, int64(5), sw.Offset())
	assert.Equal(t, []byte{0x01, 0x02, 'a', 'b', 'c'}, buf.Bytes())
}

func TestWrite_BigEndianWidths(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSafeWriter(&buf)

	require.NoError(t, Write(sw, uint8(0x42)))
	require.NoError(t, Write(sw, uint16(0x1234)))
	require.NoError(t, Write(sw, uint32(0xDEADBEEF)))
	require.NoError(t, Write(sw, uint64(0x0102030405060708)))

	want := []byte{
		0x42,
		0x12, 0x34,
		0xDE, 0xAD, 0xBE, 0xEF,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, int64(len(want)), sw.Offset())
}

func TestSafeWriter_ImplementsIOWriter(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSafeWriter(&buf)

	n, err := sw.Write([]byte("copy target"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, int64(11), sw.Offset())
}

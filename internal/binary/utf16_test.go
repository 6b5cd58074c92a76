package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUTF16BE_Basic(t *testing.T) {
	// "héllo" in big-endian UTF-16.
	b := []byte{0x00, 'h', 0x00, 0xE9, 0x00, 'l', 0x00, 'l', 0x00, 'o'}

	s, err := DecodeUTF16BE(b)
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)
}

func TestDecodeUTF16BE_SurrogatePair(t *testing.T) {
	// U+1D11E (musical G clef) as a surrogate pair.
	b := []byte{0xD8, 0x34, 0xDD, 0x1E}

	s, err := DecodeUTF16BE(b)
	require.NoError(t, err)
	assert.Equal(t, "\U0001D11E", s)
}

func TestDecodeUTF16BE_EmbeddedNull(t *testing.T) {
	// Null code units are content, not terminators.
	b := []byte{0x00, 'a', 0x00, 0x00, 0x00, 'b'}

	s, err := DecodeUTF16BE(b)
	require.NoError(t, err)
	assert.Equal(t, "a\x00b", s)
}

func TestDecodeUTF16BE_OddLength(t *testing.T) {
	_, err := DecodeUTF16BE([]byte{0x00, 'a', 0x00})
	require.Error(t, err)
}

func TestDecodeUTF16BE_UnpairedHighSurrogate(t *testing.T) {
	_, err := DecodeUTF16BE([]byte{0xD8, 0x34, 0x00, 'a'})
	require.Error(t, err)

	// High surrogate at the very end.
	_, err = DecodeUTF16BE([]byte{0x00, 'a', 0xD8, 0x34})
	require.Error(t, err)
}

func TestDecodeUTF16BE_UnpairedLowSurrogate(t *testing.T) {
	_, err := DecodeUTF16BE([]byte{0xDD, 0x1E, 0x00, 'a'})
	require.Error(t, err)
}

func TestEncodeUTF16BE_RoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", "héllo wörld", "日本語", "\U0001D11E clef", "a\x00b"} {
		b, err := EncodeUTF16BE(s)
		require.NoError(t, err)

		back, err := DecodeUTF16BE(b)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
}

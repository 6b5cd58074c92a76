package binary

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf16beDecoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

	errOddLength = errors.New("utf-16 payload has odd byte length")
)

// DecodeUTF16BE decodes big-endian UTF-16 code units into a string. The
// declared byte length bounds decoding; embedded null code units are valid
// content, not terminators. Odd byte counts and broken surrogate pairs are
// rejected rather than replaced.
func DecodeUTF16BE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errOddLength
	}
	if err := validateSurrogates(b); err != nil {
		return "", err
	}

	decoded, err := utf16beDecoder.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	return string(decoded), nil
}

// EncodeUTF16BE encodes a string as big-endian UTF-16 code units without a
// byte order mark.
func EncodeUTF16BE(s string) ([]byte, error) {
	encoded, err := utf16beDecoder.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode utf-16: %w", err)
	}
	return encoded, nil
}

// validateSurrogates checks that every high surrogate code unit is followed
// by a low one and no low surrogate appears on its own. The x/text decoder
// substitutes U+FFFD for broken pairs; the codec contract is to fail
// instead, so pairing is checked up front.
func validateSurrogates(b []byte) error {
	for i := 0; i+1 < len(b); i += 2 {
		u := uint16(b[i])<<8 | uint16(b[i+1])
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+3 >= len(b) {
				return fmt.Errorf("unpaired high surrogate 0x%04X at code unit %d", u, i/2)
			}
			next := uint16(b[i+2])<<8 | uint16(b[i+3])
			if next < 0xDC00 || next > 0xDFFF {
				return fmt.Errorf("high surrogate 0x%04X at code unit %d not followed by low surrogate", u, i/2)
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return fmt.Errorf("unpaired low surrogate 0x%04X at code unit %d", u, i/2)
		}
	}
	return nil
}

package mp4

import (
	"unicode/utf8"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// A data atom's content is a 4-byte type indicator, a 4-byte locale field,
// and the payload. The type indicator selects the payload encoding; the
// locale field is preserved as zero on write, matching the iTunes
// convention.

// parseData decodes one data atom into a typed value. When cfg.ImageData is
// false, JPEG/PNG payloads are skipped without reading and ok is false.
func parseData(sr *binary.SafeReader, head Head, cfg ReadConfig) (d types.Data, ok bool, err error) {
	if head.ContentLen() < 8 {
		return types.Data{}, false, &types.TruncatedError{
			Path:   sr.Path(),
			Atom:   head.Fourcc.String(),
			What:   "data atom type indicator",
			Offset: head.ContentOffset(),
			Need:   8,
			Have:   head.ContentLen(),
		}
	}

	r := binary.NewReader(sr, head.ContentOffset())
	code, err := binary.ReadValue[uint32](r, "data type indicator")
	if err != nil {
		return types.Data{}, false, err
	}
	r.Skip(4) // locale

	payloadLen := head.ContentLen() - 8

	switch code {
	case types.CodeUTF8:
		b, err := r.ReadBytes(payloadLen, "utf-8 payload")
		if err != nil {
			return types.Data{}, false, err
		}
		if !utf8.Valid(b) {
			return types.Data{}, false, &types.InvalidEncodingError{
				Path:     sr.Path(),
				Atom:     head.Fourcc.String(),
				Offset:   head.Offset,
				Encoding: "utf-8",
				Reason:   "payload is not valid UTF-8",
			}
		}
		return types.UTF8(string(b)), true, nil

	case types.CodeUTF16:
		b, err := r.ReadBytes(payloadLen, "utf-16 payload")
		if err != nil {
			return types.Data{}, false, err
		}
		s, err := binary.DecodeUTF16BE(b)
		if err != nil {
			return types.Data{}, false, &types.InvalidEncodingError{
				Path:     sr.Path(),
				Atom:     head.Fourcc.String(),
				Offset:   head.Offset,
				Encoding: "utf-16",
				Reason:   err.Error(),
			}
		}
		return types.UTF16(s), true, nil

	case types.CodeJPEG, types.CodePNG:
		if !cfg.ImageData {
			return types.Data{}, false, nil
		}
		b, err := r.ReadBytes(payloadLen, "image payload")
		if err != nil {
			return types.Data{}, false, err
		}
		if code == types.CodeJPEG {
			return types.JPEG(b), true, nil
		}
		return types.PNG(b), true, nil

	case types.CodeBeSigned:
		b, err := r.ReadBytes(payloadLen, "integer payload")
		if err != nil {
			return types.Data{}, false, err
		}
		// The 1-byte form is the iTunes boolean flag convention.
		if len(b) == 1 {
			return types.Bool(b[0] != 0), true, nil
		}
		return types.BeSigned(b), true, nil

	default:
		b, err := r.ReadBytes(payloadLen, "reserved payload")
		if err != nil {
			return types.Data{}, false, err
		}
		return types.Reserved(code, b), true, nil
	}
}

// dataPayload returns the encoded payload bytes for a value.
func dataPayload(d types.Data) ([]byte, error) {
	switch d.Kind {
	case types.KindUTF8:
		return []byte(d.Str), nil
	case types.KindUTF16:
		return binary.EncodeUTF16BE(d.Str)
	case types.KindBool:
		if d.Flag {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	default:
		return d.Bytes, nil
	}
}

// dataAtomLen returns the full on-disk length of a data atom holding d,
// including the 8-byte atom header.
func dataAtomLen(d types.Data) (uint64, error) {
	p, err := dataPayload(d)
	if err != nil {
		return 0, err
	}
	return 8 + 8 + uint64(len(p)), nil
}

// writeData serializes one data atom: header, type indicator, zero locale,
// payload. The size comes from the actual payload length, never estimated.
func writeData(sw *binary.SafeWriter, d types.Data) error {
	p, err := dataPayload(d)
	if err != nil {
		return err
	}
	if err := binary.Write(sw, uint32(16+len(p))); err != nil {
		return err
	}
	if err := sw.WriteBytes(DataAtom[:]); err != nil {
		return err
	}
	if err := binary.Write(sw, d.TypeCode()); err != nil {
		return err
	}
	if err := binary.Write(sw, uint32(0)); err != nil {
		return err
	}
	return sw.WriteBytes(p)
}

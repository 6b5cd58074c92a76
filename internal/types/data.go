// Package types holds the shared data model for MP4 metadata: identifiers,
// typed data values, meta items, chapters, audio properties, and the error
// taxonomy. It exists so the public package and internal/mp4 can share types
// without an import cycle.
package types

import "fmt"

// Fourcc is a 4-byte atom or identifier type code.
type Fourcc [4]byte

// FourccOf builds a Fourcc from the first four bytes of s.
func FourccOf(s string) Fourcc {
	var f Fourcc
	copy(f[:], s)
	return f
}

func (f Fourcc) String() string {
	return string(f[:])
}

// Ident identifies a metadata item: either a well-known fourcc or a freeform
// reverse-DNS identifier. The set of implementations is closed; both are
// comparable, so Ident values compare structurally with ==.
type Ident interface {
	fmt.Stringer
	ident()
}

func (f Fourcc) ident() {}

// FreeformIdent is a metadata identifier namespaced by a reverse-DNS mean
// string plus a name, stored inside a "----" atom.
type FreeformIdent struct {
	Mean string
	Name string
}

func (f FreeformIdent) ident() {}

func (f FreeformIdent) String() string {
	return fmt.Sprintf("----:%s:%s", f.Mean, f.Name)
}

// Well-known data atom type codes. The code is stored in the type-indicator
// field of a data atom and determines how the payload is interpreted.
const (
	CodeReserved uint32 = 0
	CodeUTF8     uint32 = 1
	CodeUTF16    uint32 = 2
	CodeJPEG     uint32 = 13
	CodePNG      uint32 = 14
	CodeBeSigned uint32 = 21
)

// DataKind discriminates the variants of Data.
type DataKind uint8

const (
	KindReserved DataKind = iota
	KindUTF8
	KindUTF16
	KindJPEG
	KindPNG
	KindBeSigned
	KindBool
)

func (k DataKind) String() string {
	switch k {
	case KindReserved:
		return "reserved"
	case KindUTF8:
		return "utf-8"
	case KindUTF16:
		return "utf-16"
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindBeSigned:
		return "be signed integer"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Data is one typed value held by a data atom. The kind always mirrors the
// type code the value was read with; on write the kind alone determines the
// type-indicator field.
//
// Exactly one of Str, Bytes, or Flag carries the value, selected by Kind:
//
//	KindUTF8, KindUTF16          -> Str
//	KindJPEG, KindPNG, KindBeSigned -> Bytes
//	KindBool                     -> Flag
//	KindReserved                 -> Bytes, with Code preserving the original
//	                                type code verbatim
type Data struct {
	Kind  DataKind
	Str   string
	Bytes []byte
	Flag  bool

	// Code is the raw type code for KindReserved values so unrecognized
	// payloads round-trip byte-for-byte.
	Code uint32
}

// UTF8 returns a UTF-8 string value.
func UTF8(s string) Data { return Data{Kind: KindUTF8, Str: s} }

// UTF16 returns a value written as big-endian UTF-16.
func UTF16(s string) Data { return Data{Kind: KindUTF16, Str: s} }

// JPEG returns a JPEG image value.
func JPEG(b []byte) Data { return Data{Kind: KindJPEG, Bytes: b} }

// PNG returns a PNG image value.
func PNG(b []byte) Data { return Data{Kind: KindPNG, Bytes: b} }

// BeSigned returns a big-endian signed integer value of arbitrary width.
func BeSigned(b []byte) Data { return Data{Kind: KindBeSigned, Bytes: b} }

// Bool returns a boolean flag value, stored as a 1-byte BE signed payload.
func Bool(v bool) Data { return Data{Kind: KindBool, Flag: v} }

// Reserved returns a value of an unrecognized type code, preserved verbatim.
func Reserved(code uint32, b []byte) Data {
	return Data{Kind: KindReserved, Code: code, Bytes: b}
}

// TypeCode returns the type-indicator code this value writes with.
func (d Data) TypeCode() uint32 {
	switch d.Kind {
	case KindUTF8:
		return CodeUTF8
	case KindUTF16:
		return CodeUTF16
	case KindJPEG:
		return CodeJPEG
	case KindPNG:
		return CodePNG
	case KindBeSigned, KindBool:
		return CodeBeSigned
	default:
		return d.Code
	}
}

// IsImage reports whether the value holds image data.
func (d Data) IsImage() bool {
	return d.Kind == KindJPEG || d.Kind == KindPNG
}

// Equal reports whether two values are identical in kind and content.
func (d Data) Equal(o Data) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case KindUTF8, KindUTF16:
		return d.Str == o.Str
	case KindBool:
		return d.Flag == o.Flag
	case KindReserved:
		return d.Code == o.Code && bytesEqual(d.Bytes, o.Bytes)
	default:
		return bytesEqual(d.Bytes, o.Bytes)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MetaItem associates an identifier with one or more data values. An
// identifier may legitimately repeat across items (multiple artists), and
// one item may hold several values (multiple artwork entries under covr).
type MetaItem struct {
	Ident Ident
	Data  []Data
}

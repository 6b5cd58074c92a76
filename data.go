package mp4meta

import (
	"github.com/simonhull/mp4meta/internal/types"
)

// Fourcc is an alias to types.Fourcc.
// Re-exporting from internal/types to maintain public API.
type Fourcc = types.Fourcc

// Ident is an alias to types.Ident.
// Re-exporting from internal/types to maintain public API.
type Ident = types.Ident

// FreeformIdent is an alias to types.FreeformIdent.
// Re-exporting from internal/types to maintain public API.
type FreeformIdent = types.FreeformIdent

// Data is an alias to types.Data.
// Re-exporting from internal/types to maintain public API.
type Data = types.Data

// DataKind is an alias to types.DataKind.
// Re-exporting from internal/types to maintain public API.
type DataKind = types.DataKind

// MetaItem is an alias to types.MetaItem.
// Re-exporting from internal/types to maintain public API.
type MetaItem = types.MetaItem

// Data kinds, mirroring the data atom type indicator.
const (
	KindReserved = types.KindReserved
	KindUTF8     = types.KindUTF8
	KindUTF16    = types.KindUTF16
	KindJPEG     = types.KindJPEG
	KindPNG      = types.KindPNG
	KindBeSigned = types.KindBeSigned
	KindBool     = types.KindBool
)

// FourccOf builds a Fourcc from the first four bytes of s.
func FourccOf(s string) Fourcc {
	return types.FourccOf(s)
}

// UTF8 builds a UTF-8 string value.
func UTF8(s string) Data { return types.UTF8(s) }

// UTF16 builds a value stored as big-endian UTF-16 on disk.
func UTF16(s string) Data { return types.UTF16(s) }

// JPEG builds a JPEG image value.
func JPEG(b []byte) Data { return types.JPEG(b) }

// PNG builds a PNG image value.
func PNG(b []byte) Data { return types.PNG(b) }

// BeSigned builds a big-endian signed integer value from raw bytes.
func BeSigned(b []byte) Data { return types.BeSigned(b) }

// Bool builds the 1-byte integer value iTunes uses for flags.
func Bool(v bool) Data { return types.Bool(v) }

// Reserved builds a value with an unrecognized type code, preserving the
// code and payload verbatim.
func Reserved(code uint32, b []byte) Data { return types.Reserved(code, b) }

package types

import "fmt"

// TruncatedError is returned when fewer bytes are available than an atom
// header or its declared size requires.
type TruncatedError struct {
	Path   string
	Atom   string
	What   string
	Offset int64
	Need   int64
	Have   int64
}

func (e *TruncatedError) Error() string {
	atom := e.Atom
	if atom == "" {
		atom = "file"
	}
	return fmt.Sprintf("%s: truncated %s at offset %d: need %d bytes, have %d while reading %s",
		e.Path, atom, e.Offset, e.Need, e.Have, e.What)
}

// SizeOverflowError is returned when an atom's declared size exceeds the
// bytes remaining in its enclosing scope or the file, or when extended-size
// arithmetic would overflow.
type SizeOverflowError struct {
	Path   string
	Atom   string
	Offset int64
	Size   uint64
	Bound  uint64
}

func (e *SizeOverflowError) Error() string {
	return fmt.Sprintf("%s: atom %q at offset %d declares size %d outside its enclosing bounds (%d bytes remain)",
		e.Path, e.Atom, e.Offset, e.Size, e.Bound)
}

// UnexpectedAtomTypeError is returned when a structurally required atom is
// missing or found in the wrong position.
type UnexpectedAtomTypeError struct {
	Path     string
	Expected string
	Parent   string
	Offset   int64
}

func (e *UnexpectedAtomTypeError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s: required atom %q not found under %q (searched from offset %d)",
			e.Path, e.Expected, e.Parent, e.Offset)
	}
	return fmt.Sprintf("%s: required atom %q not found (searched from offset %d)",
		e.Path, e.Expected, e.Offset)
}

// UnknownDataTypeError is returned when a data value carries no recognized
// type code and the reserved fallback cannot represent it.
type UnknownDataTypeError struct {
	Path   string
	Offset int64
	Code   uint32
}

func (e *UnknownDataTypeError) Error() string {
	return fmt.Sprintf("%s: data atom at offset %d has unknown type code %d",
		e.Path, e.Offset, e.Code)
}

// InvalidEncodingError is returned when a declared-length string payload is
// not valid text in its stated encoding.
type InvalidEncodingError struct {
	Path     string
	Atom     string
	Offset   int64
	Encoding string
	Reason   string
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("%s: atom %q at offset %d: invalid %s: %s",
		e.Path, e.Atom, e.Offset, e.Encoding, e.Reason)
}

// UnsupportedWriteError indicates the in-memory tag cannot be serialized,
// for example when a chapter title exceeds the format's length field.
type UnsupportedWriteError struct {
	Reason string
}

func (e *UnsupportedWriteError) Error() string {
	return fmt.Sprintf("write not supported: %s", e.Reason)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but may
// indicate corrupted or unusual data: a single malformed item-list entry, a
// string with a broken encoding, an image payload the configuration skipped.
//
// Warnings are collected in Tag.Warnings during parsing.
type Warning struct {
	// Stage where the warning occurred: "metadata", "technical", "chapters"
	Stage string

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

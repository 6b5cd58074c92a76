package mp4meta

import (
	"github.com/simonhull/mp4meta/internal/types"
)

// TruncatedError is an alias to types.TruncatedError.
// Re-exporting from internal/types to maintain public API.
type TruncatedError = types.TruncatedError

// SizeOverflowError is an alias to types.SizeOverflowError.
// Re-exporting from internal/types to maintain public API.
type SizeOverflowError = types.SizeOverflowError

// UnexpectedAtomTypeError is an alias to types.UnexpectedAtomTypeError.
// Re-exporting from internal/types to maintain public API.
type UnexpectedAtomTypeError = types.UnexpectedAtomTypeError

// UnknownDataTypeError is an alias to types.UnknownDataTypeError.
// Re-exporting from internal/types to maintain public API.
type UnknownDataTypeError = types.UnknownDataTypeError

// InvalidEncodingError is an alias to types.InvalidEncodingError.
// Re-exporting from internal/types to maintain public API.
type InvalidEncodingError = types.InvalidEncodingError

// UnsupportedWriteError is an alias to types.UnsupportedWriteError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedWriteError = types.UnsupportedWriteError

// Warning is an alias to types.Warning.
// Re-exporting from internal/types to maintain public API.
type Warning = types.Warning

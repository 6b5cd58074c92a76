package mp4meta

import (
	"github.com/simonhull/mp4meta/internal/types"
)

// Chapter is an alias to types.Chapter.
// Re-exporting from internal/types to maintain public API.
type Chapter = types.Chapter

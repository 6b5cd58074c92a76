package mp4meta

import (
	"github.com/simonhull/mp4meta/internal/types"
)

// AudioInfo is an alias to types.AudioInfo.
// Re-exporting from internal/types to maintain public API.
type AudioInfo = types.AudioInfo

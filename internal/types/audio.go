package types

import (
	"fmt"
	"time"
)

// AudioInfo represents technical audio properties derived from the movie and
// track headers. It is recomputed on every read and never written back; the
// sample tables it is derived from are preserved verbatim instead.
type AudioInfo struct {
	// Codec is a human-readable codec name ("AAC", "Apple Lossless", ...).
	Codec string

	// Duration is the overall presentation duration from mvhd.
	Duration time.Duration

	// SampleRate in Hz, from the audio sample entry.
	SampleRate int

	// Channels is the channel count from the audio sample entry.
	Channels int

	// Bitrate is the approximate average bitrate in bits per second,
	// computed from media-data bytes over duration.
	Bitrate int
}

// String returns a human-readable representation of the audio info.
// Example output: "AAC 44.1kHz stereo 128kbps".
func (a AudioInfo) String() string {
	channels := fmt.Sprintf("%dch", a.Channels)
	switch a.Channels {
	case 1:
		channels = "mono"
	case 2:
		channels = "stereo"
	}

	s := fmt.Sprintf("%s %.1fkHz %s", a.Codec, float64(a.SampleRate)/1000, channels)
	if a.Bitrate > 0 {
		s += fmt.Sprintf(" %dkbps", a.Bitrate/1000)
	}
	return s
}

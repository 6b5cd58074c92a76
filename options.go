package mp4meta

import (
	"github.com/simonhull/mp4meta/internal/mp4"
)

// ReadOption configures which branches of a file are parsed.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	tag, err := mp4meta.Open("song.m4a",
//	    mp4meta.WithoutImageData(),
//	    mp4meta.WithoutChapterTrack(),
//	)
type ReadOption func(*readConfig)

// readConfig holds configuration for reading files.
type readConfig = mp4.ReadConfig

// defaultReadConfig returns the default configuration: everything parsed.
func defaultReadConfig() readConfig {
	return readConfig{
		MetaItems:    true,
		ImageData:    true,
		ChapterList:  true,
		ChapterTrack: true,
		AudioInfo:    true,
	}
}

// WithoutMetaItems skips the ilst metadata branch entirely.
//
// Tag.Items will be empty. Saving such a tag with metadata writing enabled
// removes the on-disk metadata, so pair this with KeepMetaItems when you
// intend to write.
func WithoutMetaItems() ReadOption {
	return func(c *readConfig) {
		c.MetaItems = false
	}
}

// WithoutImageData skips artwork payloads while still parsing the rest of
// the metadata.
//
// Cover art in audiobooks routinely runs to hundreds of kilobytes; this
// option avoids holding it in memory when only text fields are needed.
// Image values are omitted from their items entirely, so a later Save with
// metadata writing enabled drops the artwork.
func WithoutImageData() ReadOption {
	return func(c *readConfig) {
		c.ImageData = false
	}
}

// WithoutChapterList skips the Nero chpl chapter atom.
func WithoutChapterList() ReadOption {
	return func(c *readConfig) {
		c.ChapterList = false
	}
}

// WithoutChapterTrack skips the QuickTime chapter text track.
//
// Resolving the track requires correlating four sample tables; skip it
// when chapters are not needed.
func WithoutChapterTrack() ReadOption {
	return func(c *readConfig) {
		c.ChapterTrack = false
	}
}

// WithoutAudioInfo skips technical property extraction.
//
// Tag.Audio will be its zero value.
func WithoutAudioInfo() ReadOption {
	return func(c *readConfig) {
		c.AudioInfo = false
	}
}

// WithChplTimescale overrides the timescale used to interpret chpl chapter
// start times.
//
// The default is 10,000,000 (100-nanosecond ticks), which is what Nero and
// every mainstream muxer write. Files from broken muxers that stored movie
// timescale ticks instead can be read by passing the movie timescale here.
func WithChplTimescale(timescale uint32) ReadOption {
	return func(c *readConfig) {
		c.ChplTimescale = timescale
	}
}

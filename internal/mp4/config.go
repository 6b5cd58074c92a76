package mp4

import "time"

// DefaultChplTimescale is the timescale Nero chapter lists conventionally
// use: 10,000,000 units per second (100ns ticks).
const DefaultChplTimescale uint32 = 10_000_000

// ReadConfig selects which branches of the atom tree one read operation
// descends into. It is consumed once at the start of a read and not retained.
type ReadConfig struct {
	// MetaItems descends udta/meta/ilst and decodes metadata items.
	MetaItems bool

	// ImageData decodes JPEG/PNG data payloads. When false, image values
	// are seeked over and omitted from the item list.
	ImageData bool

	// ChapterList parses the chpl atom.
	ChapterList bool

	// ChapterTrack parses the sample tables of a referenced chapter text
	// track and reads its text samples.
	ChapterTrack bool

	// AudioInfo derives duration, channel, sample-rate, and bitrate facts.
	AudioInfo bool

	// ChplTimescale is the units-per-second value used to decode chpl
	// start times. Zero means DefaultChplTimescale.
	ChplTimescale uint32
}

// WriteConfig selects which branches one write operation regenerates. Atoms
// outside the selection are copied through byte-identical to the source.
type WriteConfig struct {
	// MetaItems regenerates the ilst branch from Tag.Items.
	MetaItems bool

	// ChapterList regenerates (or removes) the chpl atom from
	// Tag.ChapterList.
	ChapterList bool

	// ChapterTrack regenerates (or removes) the chapter text track from
	// Tag.ChapterTrack.
	ChapterTrack bool

	// ChplTimescale is the units-per-second value used to re-encode chpl
	// start times. It must match the convention used when the tag was
	// read or chapter times silently shift; mismatches are a caller
	// error. Zero means DefaultChplTimescale.
	ChplTimescale uint32
}

func (c ReadConfig) chplTimescale() uint32 {
	if c.ChplTimescale == 0 {
		return DefaultChplTimescale
	}
	return c.ChplTimescale
}

func (c WriteConfig) chplTimescale() uint32 {
	if c.ChplTimescale == 0 {
		return DefaultChplTimescale
	}
	return c.ChplTimescale
}

// scaleDuration converts a tick count at the given timescale to a duration.
// Split into whole seconds and remainder to stay exact without overflowing
// 64-bit arithmetic on large tick counts.
func scaleDuration(timescale uint32, ticks uint64) time.Duration {
	ts := uint64(timescale)
	if ts == 0 {
		return 0
	}
	secs := ticks / ts
	rem := ticks % ts
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/ts)
}

// unscaleDuration converts a duration to a tick count at the given timescale.
func unscaleDuration(timescale uint32, d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	ns := uint64(d)
	ts := uint64(timescale)
	secs := ns / uint64(time.Second)
	rem := ns % uint64(time.Second)
	return secs*ts + rem*ts/uint64(time.Second)
}

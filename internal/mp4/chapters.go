package mp4

import (
	"bytes"
	"unicode/utf8"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// parseChpl decodes a Nero chapter list atom. Each record is an 8-byte
// start offset at the configured timescale followed by a length-prefixed
// title. Version 1 carries 4 extra bytes after the full head; both versions
// are accepted.
func parseChpl(sr *binary.SafeReader, head Head, timescale uint32) ([]types.Chapter, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	version, _, err := fullHead(r, "chpl version")
	if err != nil {
		return nil, err
	}
	if version == 1 {
		r.Skip(4)
	}

	count, err := binary.ReadValue[uint8](r, "chapter count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	chapters := make([]types.Chapter, 0, count)
	for r.Offset() < head.End() {
		start, err := binary.ReadValue[uint64](r, "chapter start time")
		if err != nil {
			return nil, err
		}
		titleLen, err := binary.ReadValue[uint8](r, "chapter title length")
		if err != nil {
			return nil, err
		}
		title, err := r.ReadString(int64(titleLen), "chapter title")
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, types.Chapter{
			Start: scaleDuration(timescale, start),
			Title: title,
		})
	}

	return chapters, nil
}

// chplPayload serializes the chapter list into the content bytes of a chpl
// atom (version 0), re-encoding starts at the given timescale.
func chplPayload(chapters []types.Chapter, timescale uint32) ([]byte, error) {
	if len(chapters) > 255 {
		return nil, &types.UnsupportedWriteError{
			Reason: "chapter list holds more than 255 entries",
		}
	}

	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	if err := binary.Write(sw, uint32(0)); err != nil { // version + flags
		return nil, err
	}
	if err := binary.Write(sw, uint8(len(chapters))); err != nil {
		return nil, err
	}
	for _, c := range chapters {
		if len(c.Title) > 255 {
			return nil, &types.UnsupportedWriteError{
				Reason: "chapter title longer than 255 bytes",
			}
		}
		if err := binary.Write(sw, unscaleDuration(timescale, c.Start)); err != nil {
			return nil, err
		}
		if err := binary.Write(sw, uint8(len(c.Title))); err != nil {
			return nil, err
		}
		if err := sw.WriteString(c.Title); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// readChapterTrack builds the chapter sequence from a chapter text track:
// the track referenced by another track's tref/chap whose samples are
// length-prefixed titles. Start times are the cumulative duration of
// preceding samples at the chapter track's own timescale.
func readChapterTrack(sr *binary.SafeReader, tracks []trackInfo) ([]types.Chapter, error) {
	target := findChapterTrack(tracks)
	if target == nil {
		return nil, nil
	}

	t := &target.table
	if len(t.offsets) == 0 || t.sampleCount == 0 {
		return nil, nil
	}

	chapters := make([]types.Chapter, 0, t.sampleCount)
	durations := expandDurations(t.durations, t.sampleCount)

	var elapsed uint64
	sample := uint32(0)
	for chunk := uint32(1); chunk <= uint32(len(t.offsets)) && sample < t.sampleCount; chunk++ {
		sampleOffset := int64(t.offsets[chunk-1])
		for n := t.samplesPerChunk(chunk); n > 0 && sample < t.sampleCount; n-- {
			title, err := readTextSample(sr, sampleOffset, int64(t.sampleSize(sample)))
			if err != nil {
				return nil, err
			}
			chapters = append(chapters, types.Chapter{
				Start: scaleDuration(target.media.timescale, elapsed),
				Title: title,
			})
			elapsed += uint64(durations[sample])
			sampleOffset += int64(t.sampleSize(sample))
			sample++
		}
	}

	return chapters, nil
}

// findChapterTrack resolves tref/chap references to the track they point
// at, requiring a text handler.
func findChapterTrack(tracks []trackInfo) *trackInfo {
	for _, t := range tracks {
		for _, id := range t.chapRefs {
			for i := range tracks {
				ref := &tracks[i]
				if ref.id == id && ref.handler == TextHandler && ref.hasTable {
					return ref
				}
			}
		}
	}
	return nil
}

// expandDurations flattens the stts run-length encoding into one duration
// per sample, capped at the sample count.
func expandDurations(entries []sttsEntry, samples uint32) []uint32 {
	out := make([]uint32, 0, samples)
	for _, e := range entries {
		for i := uint32(0); i < e.count && uint32(len(out)) < samples; i++ {
			out = append(out, e.duration)
		}
	}
	for uint32(len(out)) < samples {
		out = append(out, 0)
	}
	return out
}

// readTextSample reads one chapter text sample: a 2-byte length prefix and
// the title bytes. Titles with a UTF-16 byte order mark are decoded as
// UTF-16; everything else must be valid UTF-8.
func readTextSample(sr *binary.SafeReader, offset, size int64) (string, error) {
	if size < 2 {
		return "", nil
	}
	titleLen, err := binary.Read[uint16](sr, offset, "text sample length")
	if err != nil {
		return "", err
	}
	if int64(titleLen) > size-2 {
		return "", &types.SizeOverflowError{
			Path:   sr.Path(),
			Atom:   TextMedia.String(),
			Offset: offset,
			Size:   uint64(titleLen),
			Bound:  uint64(size - 2),
		}
	}

	b, err := sr.ReadBytes(offset+2, int64(titleLen), "text sample")
	if err != nil {
		return "", err
	}

	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		s, err := binary.DecodeUTF16BE(b[2:])
		if err != nil {
			return "", &types.InvalidEncodingError{
				Path:     sr.Path(),
				Atom:     TextMedia.String(),
				Offset:   offset,
				Encoding: "utf-16",
				Reason:   err.Error(),
			}
		}
		return s, nil
	}

	if !utf8.Valid(b) {
		return "", &types.InvalidEncodingError{
			Path:     sr.Path(),
			Atom:     TextMedia.String(),
			Offset:   offset,
			Encoding: "utf-8",
			Reason:   "text sample is not valid UTF-8",
		}
	}
	return string(b), nil
}

package mp4

import (
	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// codecNames maps sample entry fourccs to human-readable codec names.
var codecNames = map[Fourcc]string{
	types.FourccOf("mp4a"): "AAC",
	types.FourccOf("alac"): "Apple Lossless",
	types.FourccOf("ac-3"): "AC-3",
	types.FourccOf("ec-3"): "E-AC-3",
	types.FourccOf("flac"): "FLAC",
	types.FourccOf("opus"): "Opus",
	types.FourccOf("mp3 "): "MP3",
	types.FourccOf(".mp3"): "MP3",
}

func codecName(fourcc Fourcc) string {
	if name, ok := codecNames[fourcc]; ok {
		return name
	}
	return fourcc.String()
}

// movieHeader holds the movie-level timescale and duration from mvhd.
type movieHeader struct {
	timescale uint32
	duration  uint64
}

// parseMvhd reads the movie header. The version byte selects 32-bit or
// 64-bit duration fields; each atom instance decides independently.
func parseMvhd(sr *binary.SafeReader, head Head) (movieHeader, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	version, _, err := fullHead(r, "mvhd version")
	if err != nil {
		return movieHeader{}, err
	}

	var mh movieHeader
	switch version {
	case 1:
		r.Skip(16) // creation + modification time
		mh.timescale, err = binary.ReadValue[uint32](r, "mvhd timescale")
		if err != nil {
			return movieHeader{}, err
		}
		mh.duration, err = binary.ReadValue[uint64](r, "mvhd duration")
		if err != nil {
			return movieHeader{}, err
		}
	default:
		r.Skip(8)
		mh.timescale, err = binary.ReadValue[uint32](r, "mvhd timescale")
		if err != nil {
			return movieHeader{}, err
		}
		d32, err := binary.ReadValue[uint32](r, "mvhd duration")
		if err != nil {
			return movieHeader{}, err
		}
		mh.duration = uint64(d32)
	}
	return mh, nil
}

// mediaHeader holds the per-track timescale and duration from mdhd.
type mediaHeader struct {
	timescale uint32
	duration  uint64
}

func parseMdhd(sr *binary.SafeReader, head Head) (mediaHeader, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	version, _, err := fullHead(r, "mdhd version")
	if err != nil {
		return mediaHeader{}, err
	}

	var mh mediaHeader
	switch version {
	case 1:
		r.Skip(16)
		mh.timescale, err = binary.ReadValue[uint32](r, "mdhd timescale")
		if err != nil {
			return mediaHeader{}, err
		}
		mh.duration, err = binary.ReadValue[uint64](r, "mdhd duration")
		if err != nil {
			return mediaHeader{}, err
		}
	default:
		r.Skip(8)
		mh.timescale, err = binary.ReadValue[uint32](r, "mdhd timescale")
		if err != nil {
			return mediaHeader{}, err
		}
		d32, err := binary.ReadValue[uint32](r, "mdhd duration")
		if err != nil {
			return mediaHeader{}, err
		}
		mh.duration = uint64(d32)
	}
	return mh, nil
}

// parseTrackID reads the track ID from a tkhd atom, branching on its
// version byte for the field layout.
func parseTrackID(sr *binary.SafeReader, head Head) (uint32, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	version, _, err := fullHead(r, "tkhd version")
	if err != nil {
		return 0, err
	}
	if version == 1 {
		r.Skip(16)
	} else {
		r.Skip(8)
	}
	return binary.ReadValue[uint32](r, "tkhd track id")
}

// parseHandlerType reads the handler type ("soun", "text", ...) from an
// hdlr atom.
func parseHandlerType(sr *binary.SafeReader, head Head) (Fourcc, error) {
	if head.ContentLen() < 12 {
		return Fourcc{}, &types.TruncatedError{
			Path:   sr.Path(),
			Atom:   "hdlr",
			What:   "handler type",
			Offset: head.ContentOffset(),
			Need:   12,
			Have:   head.ContentLen(),
		}
	}
	var fourcc Fourcc
	// Version/flags (4) and component type (4) precede the handler type.
	if err := sr.ReadAt(fourcc[:], head.ContentOffset()+8, "handler type"); err != nil {
		return Fourcc{}, err
	}
	return fourcc, nil
}

// audioSampleEntry holds the facts extracted from the first sample entry of
// an audio track's stsd atom.
type audioSampleEntry struct {
	codec      Fourcc
	channels   uint16
	sampleRate uint32
}

// parseStsd reads the first sample entry of an stsd atom. Audio sample
// entries share a fixed prefix: 6 reserved bytes, a data reference index,
// 8 bytes of version/revision/vendor, channel count, sample size, 4 bytes
// of compression/packet fields, and a 16.16 fixed-point sample rate.
func parseStsd(sr *binary.SafeReader, head Head) (audioSampleEntry, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	if _, _, err := fullHead(r, "stsd version"); err != nil {
		return audioSampleEntry{}, err
	}
	count, err := binary.ReadValue[uint32](r, "stsd entry count")
	if err != nil {
		return audioSampleEntry{}, err
	}
	if count == 0 {
		return audioSampleEntry{}, nil
	}

	entry, err := parseHead(sr, r.Offset(), head.End())
	if err != nil {
		return audioSampleEntry{}, err
	}

	e := audioSampleEntry{codec: entry.Fourcc}
	if entry.ContentLen() < 28 {
		// Not an audio sample entry layout; the codec identity alone
		// is still useful.
		return e, nil
	}

	er := binary.NewReader(sr, entry.ContentOffset())
	er.Skip(6 + 2 + 8)
	e.channels, err = binary.ReadValue[uint16](er, "channel count")
	if err != nil {
		return audioSampleEntry{}, err
	}
	er.Skip(2 + 4) // sample size, compression id + packet size
	e.sampleRate, err = binary.ReadValue[uint32](er, "sample rate")
	if err != nil {
		return audioSampleEntry{}, err
	}
	e.sampleRate >>= 16 // 16.16 fixed point
	return e, nil
}

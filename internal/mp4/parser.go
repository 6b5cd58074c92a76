package mp4

import (
	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// Read parses one MP4 file into a Tag under the given configuration.
//
// Containers needed for structure (moov, trak, mdia) are always descended;
// the metadata branch and the sample tables are descended only when the
// corresponding config flag is set, so a caller wanting a subset never pays
// I/O for the rest. Unknown atoms are ignored here and preserved verbatim by
// the writer.
func Read(sr *binary.SafeReader, cfg ReadConfig) (*types.Tag, error) {
	tag := &types.Tag{}

	var (
		moov      Head
		haveMoov  bool
		mdatBytes uint64
	)

	// Top-level scan. Only headers are read; content is seeked over.
	offset := int64(0)
	for offset < sr.Size() {
		head, err := parseHead(sr, offset, sr.Size())
		if err != nil {
			return nil, err
		}
		switch head.Fourcc {
		case Movie:
			moov = head
			haveMoov = true
		case MediaData:
			mdatBytes += uint64(head.ContentLen())
		}
		offset = head.End()
	}

	if !haveMoov {
		return nil, &types.UnexpectedAtomTypeError{
			Path:     sr.Path(),
			Expected: Movie.String(),
		}
	}

	var (
		mvhd     movieHeader
		haveMvhd bool
		tracks   []trackInfo
	)

	offset = moov.ContentOffset()
	for offset < moov.End() {
		head, err := parseHead(sr, offset, moov.End())
		if err != nil {
			return nil, err
		}
		switch head.Fourcc {
		case MovieHeader:
			mvhd, err = parseMvhd(sr, head)
			if err != nil {
				return nil, err
			}
			haveMvhd = true
		case Track:
			track, err := parseTrack(sr, head, cfg)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, track)
		case UserData:
			if err := parseUdta(sr, head, cfg, tag); err != nil {
				return nil, err
			}
		}
		offset = head.End()
	}

	if !haveMvhd {
		return nil, &types.UnexpectedAtomTypeError{
			Path:     sr.Path(),
			Expected: MovieHeader.String(),
			Parent:   Movie.String(),
			Offset:   moov.Offset,
		}
	}

	if cfg.AudioInfo {
		tag.Audio = buildAudioInfo(mvhd, tracks, mdatBytes)
	}

	if cfg.ChapterTrack {
		chapters, err := readChapterTrack(sr, tracks)
		if err != nil {
			return nil, err
		}
		tag.ChapterTrack = chapters
	}

	return tag, nil
}

// trackInfo collects the per-track facts the extractors need, without
// retaining full sample tables beyond the read that produced them.
type trackInfo struct {
	head     Head
	id       uint32
	handler  Fourcc
	media    mediaHeader
	entry    audioSampleEntry
	chapRefs []uint32
	table    sampleTable
	hasTable bool
}

func parseTrack(sr *binary.SafeReader, trak Head, cfg ReadConfig) (trackInfo, error) {
	track := trackInfo{head: trak}

	offset := trak.ContentOffset()
	for offset < trak.End() {
		head, err := parseHead(sr, offset, trak.End())
		if err != nil {
			return trackInfo{}, err
		}
		switch head.Fourcc {
		case TrackHeader:
			track.id, err = parseTrackID(sr, head)
			if err != nil {
				return trackInfo{}, err
			}
		case TrackReference:
			track.chapRefs, err = parseChapRefs(sr, head)
			if err != nil {
				return trackInfo{}, err
			}
		case Media:
			if err := parseMediaBranch(sr, head, cfg, &track); err != nil {
				return trackInfo{}, err
			}
		}
		offset = head.End()
	}

	return track, nil
}

func parseMediaBranch(sr *binary.SafeReader, mdia Head, cfg ReadConfig, track *trackInfo) error {
	offset := mdia.ContentOffset()
	for offset < mdia.End() {
		head, err := parseHead(sr, offset, mdia.End())
		if err != nil {
			return err
		}
		switch head.Fourcc {
		case MediaHeader:
			track.media, err = parseMdhd(sr, head)
			if err != nil {
				return err
			}
		case Handler:
			track.handler, err = parseHandlerType(sr, head)
			if err != nil {
				return err
			}
		case MediaInfo:
			stbl, found, err := findAtom(sr, head.ContentOffset(), head.End(), SampleTable)
			if err != nil {
				return err
			}
			if found {
				if err := parseSampleBranch(sr, stbl, cfg, track); err != nil {
					return err
				}
			}
		}
		offset = head.End()
	}
	return nil
}

// parseSampleBranch reads the parts of an stbl branch the configuration
// asks for; everything else is seeked over.
func parseSampleBranch(sr *binary.SafeReader, stbl Head, cfg ReadConfig, track *trackInfo) error {
	offset := stbl.ContentOffset()
	for offset < stbl.End() {
		head, err := parseHead(sr, offset, stbl.End())
		if err != nil {
			return err
		}
		switch head.Fourcc {
		case SampleDesc:
			if cfg.AudioInfo {
				track.entry, err = parseStsd(sr, head)
				if err != nil {
					return err
				}
			}
		case TimeToSample:
			if cfg.ChapterTrack {
				track.table.durations, err = parseStts(sr, head)
				if err != nil {
					return err
				}
				track.hasTable = true
			}
		case SampleToChunk:
			if cfg.ChapterTrack {
				track.table.chunks, err = parseStsc(sr, head)
				if err != nil {
					return err
				}
			}
		case SampleSize:
			if cfg.ChapterTrack {
				track.table.sizes, track.table.uniformSize, track.table.sampleCount, err = parseStsz(sr, head)
				if err != nil {
					return err
				}
			}
		case ChunkOffset32, ChunkOffset64:
			if cfg.ChapterTrack {
				track.table.offsets, err = parseChunkOffsets(sr, head)
				if err != nil {
					return err
				}
			}
		}
		offset = head.End()
	}
	return nil
}

// parseChapRefs reads the chapter track IDs referenced by a tref/chap atom.
func parseChapRefs(sr *binary.SafeReader, tref Head) ([]uint32, error) {
	chap, found, err := findAtom(sr, tref.ContentOffset(), tref.End(), ChapterRef)
	if err != nil || !found {
		return nil, err
	}

	count := chap.ContentLen() / 4
	ids := make([]uint32, 0, count)
	r := binary.NewReader(sr, chap.ContentOffset())
	for i := int64(0); i < count; i++ {
		id, err := binary.ReadValue[uint32](r, "chapter track id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseUdta handles the chpl atom and the meta/ilst branch under udta,
// gated by the configuration.
func parseUdta(sr *binary.SafeReader, udta Head, cfg ReadConfig, tag *types.Tag) error {
	offset := udta.ContentOffset()
	for offset < udta.End() {
		head, err := parseHead(sr, offset, udta.End())
		if err != nil {
			return err
		}
		switch head.Fourcc {
		case ChapterList:
			if cfg.ChapterList {
				tag.ChapterList, err = parseChpl(sr, head, cfg.chplTimescale())
				if err != nil {
					return err
				}
			}
		case Metadata:
			if cfg.MetaItems {
				// meta is a full atom: 4 bytes of version/flags
				// precede its children.
				ilst, found, err := findAtom(sr, head.ContentOffset()+4, head.End(), ItemList)
				if err != nil {
					return err
				}
				if found {
					if err := parseIlst(sr, ilst, cfg, tag); err != nil {
						return err
					}
				}
			}
		}
		offset = head.End()
	}
	return nil
}

func buildAudioInfo(mvhd movieHeader, tracks []trackInfo, mdatBytes uint64) types.AudioInfo {
	info := types.AudioInfo{
		Duration: scaleDuration(mvhd.timescale, mvhd.duration),
	}

	for _, t := range tracks {
		if t.handler != SoundHandler {
			continue
		}
		info.Codec = codecName(t.entry.codec)
		info.Channels = int(t.entry.channels)
		info.SampleRate = int(t.entry.sampleRate)
		break
	}

	if secs := info.Duration.Seconds(); secs > 0 {
		info.Bitrate = int(float64(mdatBytes*8) / secs)
	}
	return info
}

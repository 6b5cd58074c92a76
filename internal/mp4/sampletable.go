package mp4

import (
	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// sampleTable aggregates the parts of an stbl branch the chapter resolver
// and the offset patcher need. The full tables are never retained past the
// operation that read them.
type sampleTable struct {
	// durations holds one entry per stts record.
	durations []sttsEntry

	// sizes holds one entry per sample; uniformSize is used instead when
	// stsz declares a constant sample size.
	sizes       []uint32
	uniformSize uint32
	sampleCount uint32

	// chunks holds stsc records mapping chunk runs to samples-per-chunk.
	chunks []stscEntry

	// offsets holds absolute file offsets of each chunk, from stco or
	// co64 (selected by atom type code, not a flag).
	offsets []uint64
}

type sttsEntry struct {
	count    uint32
	duration uint32
}

type stscEntry struct {
	firstChunk      uint32
	samplesPerChunk uint32
}

func parseStts(sr *binary.SafeReader, head Head) ([]sttsEntry, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	if _, _, err := fullHead(r, "stts version"); err != nil {
		return nil, err
	}
	count, err := binary.ReadValue[uint32](r, "stts entry count")
	if err != nil {
		return nil, err
	}
	if err := checkTableLen(sr, head, count, 8, 8); err != nil {
		return nil, err
	}

	entries := make([]sttsEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		c, err := binary.ReadValue[uint32](r, "stts sample count")
		if err != nil {
			return nil, err
		}
		d, err := binary.ReadValue[uint32](r, "stts sample duration")
		if err != nil {
			return nil, err
		}
		entries = append(entries, sttsEntry{count: c, duration: d})
	}
	return entries, nil
}

func parseStsc(sr *binary.SafeReader, head Head) ([]stscEntry, error) {
	r := binary.NewReader(sr, head.ContentOffset())
	if _, _, err := fullHead(r, "stsc version"); err != nil {
		return nil, err
	}
	count, err := binary.ReadValue[uint32](r, "stsc entry count")
	if err != nil {
		return nil, err
	}
	if err := checkTableLen(sr, head, count, 12, 8); err != nil {
		return nil, err
	}

	entries := make([]stscEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		first, err := binary.ReadValue[uint32](r, "stsc first chunk")
		if err != nil {
			return nil, err
		}
		per, err := binary.ReadValue[uint32](r, "stsc samples per chunk")
		if err != nil {
			return nil, err
		}
		r.Skip(4) // sample description index
		entries = append(entries, stscEntry{firstChunk: first, samplesPerChunk: per})
	}
	return entries, nil
}

func parseStsz(sr *binary.SafeReader, head Head) (sizes []uint32, uniform, count uint32, err error) {
	r := binary.NewReader(sr, head.ContentOffset())
	if _, _, err := fullHead(r, "stsz version"); err != nil {
		return nil, 0, 0, err
	}
	uniform, err = binary.ReadValue[uint32](r, "stsz uniform size")
	if err != nil {
		return nil, 0, 0, err
	}
	count, err = binary.ReadValue[uint32](r, "stsz sample count")
	if err != nil {
		return nil, 0, 0, err
	}
	if uniform != 0 {
		return nil, uniform, count, nil
	}
	if err := checkTableLen(sr, head, count, 4, 12); err != nil {
		return nil, 0, 0, err
	}

	sizes = make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := binary.ReadValue[uint32](r, "stsz sample size")
		if err != nil {
			return nil, 0, 0, err
		}
		sizes = append(sizes, s)
	}
	return sizes, 0, count, nil
}

// parseChunkOffsets reads an stco or co64 table into 64-bit offsets. The
// entry width follows the atom type code.
func parseChunkOffsets(sr *binary.SafeReader, head Head) ([]uint64, error) {
	wide := head.Fourcc == ChunkOffset64

	r := binary.NewReader(sr, head.ContentOffset())
	if _, _, err := fullHead(r, "chunk offset version"); err != nil {
		return nil, err
	}
	count, err := binary.ReadValue[uint32](r, "chunk offset count")
	if err != nil {
		return nil, err
	}
	width := uint64(4)
	if wide {
		width = 8
	}
	if err := checkTableLen(sr, head, count, width, 8); err != nil {
		return nil, err
	}

	offsets := make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		if wide {
			o, err := binary.ReadValue[uint64](r, "chunk offset")
			if err != nil {
				return nil, err
			}
			offsets = append(offsets, o)
		} else {
			o, err := binary.ReadValue[uint32](r, "chunk offset")
			if err != nil {
				return nil, err
			}
			offsets = append(offsets, uint64(o))
		}
	}
	return offsets, nil
}

// checkTableLen validates a declared entry count against the atom's actual
// content length before any entry-proportional allocation happens.
func checkTableLen(sr *binary.SafeReader, head Head, count uint32, entryLen, headerLen uint64) error {
	need := headerLen + uint64(count)*entryLen
	if need > uint64(head.ContentLen()) {
		return &types.SizeOverflowError{
			Path:   sr.Path(),
			Atom:   head.Fourcc.String(),
			Offset: head.Offset,
			Size:   need,
			Bound:  uint64(head.ContentLen()),
		}
	}
	return nil
}

// sampleSize returns the size of sample i.
func (t *sampleTable) sampleSize(i uint32) uint32 {
	if t.uniformSize != 0 {
		return t.uniformSize
	}
	if int(i) < len(t.sizes) {
		return t.sizes[i]
	}
	return 0
}

// samplesPerChunk returns how many samples chunk c (1-based) holds,
// resolving the stsc run-length encoding.
func (t *sampleTable) samplesPerChunk(c uint32) uint32 {
	per := uint32(0)
	for _, e := range t.chunks {
		if e.firstChunk > c {
			break
		}
		per = e.samplesPerChunk
	}
	return per
}

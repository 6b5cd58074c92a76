package mp4

import (
	"bytes"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// textSampleEntryRecord is the text sample description record written into
// the chapter track's stsd: display flags, justification, background color,
// default text box, style record, and a minimal font table.
var textSampleEntryRecord = []byte{
	0x00, 0x00, 0x00, 0x01, // display flags
	0x00, 0x00, // horizontal and vertical justification
	0x00, 0x00, 0x00, 0x00, // background color
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // default text box
	0x00, 0x00, 0x00, 0x00, // style record: start, end char
	0x00, 0x01, // font id
	0x00, 0x00, // font style flags, font size
	0x00, 0x00, 0x00, 0x00, // foreground color
	0x00, 0x00, 0x00, 0x0D, // font table box size
	'f', 't', 'a', 'b',
	0x00, 0x01, // entry count
	0x00, 0x01, // font id
	0x00, // font name length
}

// identityMatrix is the 3x3 fixed-point transformation matrix used by track
// and media headers.
var identityMatrix = []byte{
	0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
}

// chapterTrack is the freshly built text track plus the pieces the writer
// fills in once the output layout is known: the chunk-offset node and the
// media-data payload holding the text samples.
type chapterTrack struct {
	trak    *node
	stco    *node
	samples []byte
}

// buildChapterTrack assembles a complete chapter text track: track and
// media headers at the movie timescale, a text handler, a minimal media
// information branch, and a sample table with one chunk holding all text
// samples. The chunk offset is filled by the writer after layout.
func buildChapterTrack(chapters []types.Chapter, trackID uint32, mh movieHeader) (*chapterTrack, error) {
	samples, sizes, err := chapterSamples(chapters)
	if err != nil {
		return nil, err
	}
	durations := chapterDurations(chapters, mh)

	stco := leaf(ChunkOffset32, chunkOffsetPayload(ChunkOffset32, []uint64{0}))

	stbl := container(SampleTable,
		leaf(SampleDesc, textStsdPayload()),
		leaf(TimeToSample, sttsPayload(durations)),
		leaf(SampleToChunk, stscPayload(uint32(len(chapters)))),
		leaf(SampleSize, stszPayload(sizes)),
		stco,
	)

	minf := container(MediaInfo,
		container(BaseMediaHead,
			leaf(BaseMediaInfo, gminPayload()),
			leaf(TextMedia, identityMatrix),
		),
		container(DataInfo, leaf(DataReference, drefPayload())),
		stbl,
	)

	mdia := container(Media,
		leaf(MediaHeader, mdhdPayload(mh)),
		leaf(Handler, hdlrPayload(TextHandler)),
		minf,
	)

	trak := container(Track,
		leaf(TrackHeader, tkhdPayload(trackID, mh)),
		mdia,
	)

	return &chapterTrack{trak: trak, stco: stco, samples: samples}, nil
}

// chapterSamples encodes the text samples: a 2-byte length prefix per
// title.
func chapterSamples(chapters []types.Chapter) (payload []byte, sizes []uint32, err error) {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	sizes = make([]uint32, 0, len(chapters))
	for _, c := range chapters {
		if len(c.Title) > 0xFFFF {
			return nil, nil, &types.UnsupportedWriteError{
				Reason: "chapter title longer than 65535 bytes",
			}
		}
		if err := binary.Write(sw, uint16(len(c.Title))); err != nil {
			return nil, nil, err
		}
		if err := sw.WriteString(c.Title); err != nil {
			return nil, nil, err
		}
		sizes = append(sizes, uint32(2+len(c.Title)))
	}
	return buf.Bytes(), sizes, nil
}

// chapterDurations derives per-sample durations at the movie timescale:
// each chapter lasts until the next one starts, the last until the end of
// the presentation.
func chapterDurations(chapters []types.Chapter, mh movieHeader) []uint32 {
	durations := make([]uint32, len(chapters))
	for i, c := range chapters {
		start := unscaleDuration(mh.timescale, c.Start)
		var end uint64
		if i+1 < len(chapters) {
			end = unscaleDuration(mh.timescale, chapters[i+1].Start)
		} else {
			end = mh.duration
		}
		if end > start {
			durations[i] = uint32(end - start)
		}
	}
	return durations
}

func leaf(fourcc Fourcc, payload []byte) *node {
	return &node{
		head:     Head{Fourcc: fourcc, HeaderLen: 8},
		payload:  payload,
		inserted: true,
		dirty:    true,
	}
}

func container(fourcc Fourcc, children ...*node) *node {
	return &node{
		head:     Head{Fourcc: fourcc, HeaderLen: 8},
		children: children,
		inserted: true,
		dirty:    true,
	}
}

func tkhdPayload(trackID uint32, mh movieHeader) []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0)) // version, flags: track disabled
	_ = binary.Write(sw, uint32(0)) // creation time
	_ = binary.Write(sw, uint32(0)) // modification time
	_ = binary.Write(sw, trackID)
	_ = binary.Write(sw, uint32(0)) // reserved
	_ = binary.Write(sw, uint32(mh.duration))
	_ = binary.Write(sw, uint64(0)) // reserved
	_ = binary.Write(sw, uint32(0)) // layer, alternate group
	_ = binary.Write(sw, uint32(0)) // volume, reserved
	_ = sw.WriteBytes(identityMatrix)
	_ = binary.Write(sw, uint32(0)) // width
	_ = binary.Write(sw, uint32(0)) // height
	return buf.Bytes()
}

func mdhdPayload(mh movieHeader) []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0)) // version, flags
	_ = binary.Write(sw, uint32(0)) // creation time
	_ = binary.Write(sw, uint32(0)) // modification time
	_ = binary.Write(sw, mh.timescale)
	_ = binary.Write(sw, uint32(mh.duration))
	_ = binary.Write(sw, uint16(0x55C4)) // language: und
	_ = binary.Write(sw, uint16(0))      // quality
	return buf.Bytes()
}

func hdlrPayload(handler Fourcc) []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0)) // version, flags
	_ = binary.Write(sw, uint32(0)) // component type
	_ = sw.WriteBytes(handler[:])
	_ = binary.Write(sw, uint32(0)) // manufacturer
	_ = binary.Write(sw, uint32(0)) // component flags
	_ = binary.Write(sw, uint32(0)) // component flags mask
	_ = binary.Write(sw, uint8(0))  // empty name
	return buf.Bytes()
}

func gminPayload() []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0))      // version, flags
	_ = binary.Write(sw, uint16(0x0040)) // graphics mode: dither copy
	_ = binary.Write(sw, uint16(0x8000)) // opcolor red
	_ = binary.Write(sw, uint16(0x8000)) // opcolor green
	_ = binary.Write(sw, uint16(0x8000)) // opcolor blue
	_ = binary.Write(sw, uint16(0))      // balance
	_ = binary.Write(sw, uint16(0))      // reserved
	return buf.Bytes()
}

func drefPayload() []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0)) // version, flags
	_ = binary.Write(sw, uint32(1)) // entry count
	_ = binary.Write(sw, uint32(12))
	_ = sw.WriteBytes(URLMedia[:])
	_ = binary.Write(sw, uint32(1)) // self-contained
	return buf.Bytes()
}

func textStsdPayload() []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0)) // version, flags
	_ = binary.Write(sw, uint32(1)) // entry count
	_ = binary.Write(sw, uint32(8+8+uint32(len(textSampleEntryRecord))))
	_ = sw.WriteBytes(TextMedia[:])
	_ = sw.WriteBytes([]byte{0, 0, 0, 0, 0, 0}) // reserved
	_ = binary.Write(sw, uint16(1))             // data reference index
	_ = sw.WriteBytes(textSampleEntryRecord)
	return buf.Bytes()
}

// sttsPayload run-length encodes the per-sample durations.
func sttsPayload(durations []uint32) []byte {
	var entries []sttsEntry
	for _, d := range durations {
		if len(entries) > 0 && entries[len(entries)-1].duration == d {
			entries[len(entries)-1].count++
			continue
		}
		entries = append(entries, sttsEntry{count: 1, duration: d})
	}

	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0))
	_ = binary.Write(sw, uint32(len(entries)))
	for _, e := range entries {
		_ = binary.Write(sw, e.count)
		_ = binary.Write(sw, e.duration)
	}
	return buf.Bytes()
}

// stscPayload maps all samples into a single chunk.
func stscPayload(samples uint32) []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0))
	_ = binary.Write(sw, uint32(1)) // entry count
	_ = binary.Write(sw, uint32(1)) // first chunk
	_ = binary.Write(sw, samples)   // samples per chunk
	_ = binary.Write(sw, uint32(1)) // sample description index
	return buf.Bytes()
}

func stszPayload(sizes []uint32) []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0))
	_ = binary.Write(sw, uint32(0)) // no uniform size
	_ = binary.Write(sw, uint32(len(sizes)))
	for _, s := range sizes {
		_ = binary.Write(sw, s)
	}
	return buf.Bytes()
}

// chunkOffsetPayload serializes an stco or co64 table, the entry width
// selected by the atom type code.
func chunkOffsetPayload(fourcc Fourcc, offsets []uint64) []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write(sw, uint32(0))
	_ = binary.Write(sw, uint32(len(offsets)))
	for _, o := range offsets {
		if fourcc == ChunkOffset64 {
			_ = binary.Write(sw, o)
		} else {
			_ = binary.Write(sw, uint32(o))
		}
	}
	return buf.Bytes()
}

package mp4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mp4meta/internal/types"
)

func TestParseMvhd_Version0(t *testing.T) {
	raw := mvhdV0(44100, 4_410_000)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	mh, err := parseMvhd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), mh.timescale)
	assert.Equal(t, uint64(4_410_000), mh.duration)
}

func TestParseMvhd_Version1(t *testing.T) {
	raw := fullTestAtom("mvhd", 1,
		u64b(0), u64b(0), // creation, modification time
		u32b(1000),
		u64b(0x1_0000_0000),
		make([]byte, 80),
	)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	mh, err := parseMvhd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), mh.timescale)
	assert.Equal(t, uint64(0x1_0000_0000), mh.duration)
}

func TestParseMdhd_BothVersions(t *testing.T) {
	raw := mdhdV0(22050, 441_000)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	mh, err := parseMdhd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, uint32(22050), mh.timescale)
	assert.Equal(t, uint64(441_000), mh.duration)

	raw = fullTestAtom("mdhd", 1,
		u64b(0), u64b(0),
		u32b(48000), u64b(96_000),
		u16b(0x55C4), u16b(0),
	)
	sr = newTestReader(raw)
	head, err = parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	mh, err = parseMdhd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, uint32(48000), mh.timescale)
	assert.Equal(t, uint64(96_000), mh.duration)
}

func TestParseTrackID(t *testing.T) {
	raw := tkhdV0(7, 1000)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	id, err := parseTrackID(sr, head)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)

	raw = fullTestAtom("tkhd", 1,
		u64b(0), u64b(0),
		u32b(9),
		u32b(0),
		u64b(1000),
		make([]byte, 60),
	)
	sr = newTestReader(raw)
	head, err = parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	id, err = parseTrackID(sr, head)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), id)
}

func TestParseHandlerType(t *testing.T) {
	raw := hdlrBytes("soun")
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	handler, err := parseHandlerType(sr, head)
	require.NoError(t, err)
	assert.Equal(t, SoundHandler, handler)
}

func TestParseHandlerType_TooShort(t *testing.T) {
	raw := testAtom("hdlr", u32b(0))
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	_, err = parseHandlerType(sr, head)
	var te *types.TruncatedError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "hdlr", te.Atom)
}

func TestParseStsd_AudioEntry(t *testing.T) {
	raw := stsdMp4a(2, 44100)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	entry, err := parseStsd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, Mp4Audio, entry.codec)
	assert.Equal(t, uint16(2), entry.channels)
	assert.Equal(t, uint32(44100), entry.sampleRate)
}

func TestParseStsd_ShortEntryKeepsCodec(t *testing.T) {
	entry := testAtom("alac", make([]byte, 8))
	raw := fullTestAtom("stsd", 0, u32b(1), entry)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	got, err := parseStsd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, types.FourccOf("alac"), got.codec)
	assert.Zero(t, got.channels)
}

func TestParseStsd_NoEntries(t *testing.T) {
	raw := fullTestAtom("stsd", 0, u32b(0))
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	got, err := parseStsd(sr, head)
	require.NoError(t, err)
	assert.Equal(t, audioSampleEntry{}, got)
}

func TestCodecName(t *testing.T) {
	assert.Equal(t, "AAC", codecName(Mp4Audio))
	assert.Equal(t, "Apple Lossless", codecName(types.FourccOf("alac")))
	assert.Equal(t, "Opus", codecName(types.FourccOf("opus")))
	assert.Equal(t, "xyz ", codecName(types.FourccOf("xyz ")))
}

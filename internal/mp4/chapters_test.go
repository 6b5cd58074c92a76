package mp4

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mp4meta/internal/types"
)

func chplRecord(start uint64, title string) []byte {
	return join(u64b(start), []byte{byte(len(title))}, []byte(title))
}

func parseChplBytes(t *testing.T, timescale uint32, content ...[]byte) ([]types.Chapter, error) {
	t.Helper()
	raw := testAtom("chpl", content...)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)
	return parseChpl(sr, head, timescale)
}

func TestParseChpl_Version0(t *testing.T) {
	chapters, err := parseChplBytes(t, DefaultChplTimescale,
		u32b(0), // version, flags
		[]byte{2},
		chplRecord(0, "Intro"),
		chplRecord(905_000_000, "Part One"),
	)
	require.NoError(t, err)

	require.Len(t, chapters, 2)
	assert.Equal(t, types.Chapter{Start: 0, Title: "Intro"}, chapters[0])
	assert.Equal(t, 90*time.Second+500*time.Millisecond, chapters[1].Start)
	assert.Equal(t, "Part One", chapters[1].Title)
}

func TestParseChpl_Version1ExtraField(t *testing.T) {
	chapters, err := parseChplBytes(t, DefaultChplTimescale,
		[]byte{1, 0, 0, 0}, // version 1
		u32b(0),            // extra field before the count
		[]byte{1},
		chplRecord(10_000_000, "One"),
	)
	require.NoError(t, err)

	require.Len(t, chapters, 1)
	assert.Equal(t, time.Second, chapters[0].Start)
}

func TestParseChpl_Empty(t *testing.T) {
	chapters, err := parseChplBytes(t, DefaultChplTimescale, u32b(0), []byte{0})
	require.NoError(t, err)
	assert.Empty(t, chapters)
}

func TestParseChpl_CustomTimescale(t *testing.T) {
	chapters, err := parseChplBytes(t, 1000,
		u32b(0),
		[]byte{1},
		chplRecord(1500, "Late"),
	)
	require.NoError(t, err)

	require.Len(t, chapters, 1)
	assert.Equal(t, 1500*time.Millisecond, chapters[0].Start)
}

func TestParseChpl_TruncatedRecord(t *testing.T) {
	_, err := parseChplBytes(t, DefaultChplTimescale,
		u32b(0),
		[]byte{1},
		u64b(0),
		[]byte{10}, // title length pointing past the atom
		[]byte("abc"),
	)
	var te *types.TruncatedError
	require.ErrorAs(t, err, &te)
}

func TestChplPayload_RoundTrip(t *testing.T) {
	want := []types.Chapter{
		{Start: 0, Title: "Intro"},
		{Start: 90*time.Second + 500*time.Millisecond, Title: "Part One"},
		{Start: 2 * time.Hour, Title: "Part Two"},
	}

	payload, err := chplPayload(want, DefaultChplTimescale)
	require.NoError(t, err)

	got, err := parseChplBytes(t, DefaultChplTimescale, payload)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestChplPayload_TooManyChapters(t *testing.T) {
	chapters := make([]types.Chapter, 256)
	for i := range chapters {
		chapters[i] = types.Chapter{Title: "c"}
	}

	_, err := chplPayload(chapters, DefaultChplTimescale)
	var ue *types.UnsupportedWriteError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "255")
}

func TestChplPayload_TitleTooLong(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}

	_, err := chplPayload([]types.Chapter{{Title: string(long)}}, DefaultChplTimescale)
	var ue *types.UnsupportedWriteError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "title")
}

// textSampleBytes encodes one chapter text sample with its length prefix.
func textSampleBytes(title string) []byte {
	return join(u16b(uint16(len(title))), []byte(title))
}

func textTrackInfo(id uint32, timescale uint32, table sampleTable) trackInfo {
	return trackInfo{
		id:       id,
		handler:  TextHandler,
		media:    mediaHeader{timescale: timescale},
		table:    table,
		hasTable: true,
	}
}

func TestReadChapterTrack_SingleChunk(t *testing.T) {
	data := join(textSampleBytes("Intro"), textSampleBytes("Body"))
	sr := newTestReader(data)

	tracks := []trackInfo{
		{id: 1, handler: SoundHandler, chapRefs: []uint32{2}},
		textTrackInfo(2, 1000, sampleTable{
			durations:   []sttsEntry{{count: 1, duration: 1500}, {count: 1, duration: 2500}},
			sizes:       []uint32{7, 6},
			sampleCount: 2,
			chunks:      []stscEntry{{firstChunk: 1, samplesPerChunk: 2}},
			offsets:     []uint64{0},
		}),
	}

	chapters, err := readChapterTrack(sr, tracks)
	require.NoError(t, err)

	require.Len(t, chapters, 2)
	assert.Equal(t, types.Chapter{Start: 0, Title: "Intro"}, chapters[0])
	assert.Equal(t, types.Chapter{Start: 1500 * time.Millisecond, Title: "Body"}, chapters[1])
}

func TestReadChapterTrack_MultipleChunks(t *testing.T) {
	first := textSampleBytes("One")
	// A gap between chunks, as real files have.
	gap := []byte{0xAA, 0xBB, 0xCC}
	second := textSampleBytes("Two")
	data := join(first, gap, second)
	sr := newTestReader(data)

	tracks := []trackInfo{
		{id: 7, handler: SoundHandler, chapRefs: []uint32{9}},
		textTrackInfo(9, 600, sampleTable{
			durations:   []sttsEntry{{count: 2, duration: 600}},
			sizes:       []uint32{5, 5},
			sampleCount: 2,
			chunks:      []stscEntry{{firstChunk: 1, samplesPerChunk: 1}},
			offsets:     []uint64{0, uint64(len(first) + len(gap))},
		}),
	}

	chapters, err := readChapterTrack(sr, tracks)
	require.NoError(t, err)

	require.Len(t, chapters, 2)
	assert.Equal(t, "One", chapters[0].Title)
	assert.Equal(t, "Two", chapters[1].Title)
	assert.Equal(t, time.Second, chapters[1].Start)
}

func TestReadChapterTrack_NoReference(t *testing.T) {
	sr := newTestReader(nil)
	tracks := []trackInfo{
		{id: 1, handler: SoundHandler},
		textTrackInfo(2, 1000, sampleTable{sampleCount: 1, offsets: []uint64{0}}),
	}

	chapters, err := readChapterTrack(sr, tracks)
	require.NoError(t, err)
	assert.Nil(t, chapters)
}

func TestReadChapterTrack_ReferencedTrackNotText(t *testing.T) {
	sr := newTestReader(nil)
	tracks := []trackInfo{
		{id: 1, handler: SoundHandler, chapRefs: []uint32{2}},
		{id: 2, handler: SoundHandler, hasTable: true},
	}

	chapters, err := readChapterTrack(sr, tracks)
	require.NoError(t, err)
	assert.Nil(t, chapters)
}

func TestReadTextSample_UTF8(t *testing.T) {
	sr := newTestReader(textSampleBytes("Héllo"))
	title, err := readTextSample(sr, 0, int64(2+len("Héllo")))
	require.NoError(t, err)
	assert.Equal(t, "Héllo", title)
}

func TestReadTextSample_UTF16WithBOM(t *testing.T) {
	// BOM plus "Hi" in big-endian UTF-16.
	payload := []byte{0xFE, 0xFF, 0x00, 'H', 0x00, 'i'}
	sample := join(u16b(uint16(len(payload))), payload)
	sr := newTestReader(sample)

	title, err := readTextSample(sr, 0, int64(len(sample)))
	require.NoError(t, err)
	assert.Equal(t, "Hi", title)
}

func TestReadTextSample_LengthBeyondSample(t *testing.T) {
	sample := join(u16b(50), []byte("short"))
	sr := newTestReader(sample)

	_, err := readTextSample(sr, 0, int64(len(sample)))
	var se *types.SizeOverflowError
	require.ErrorAs(t, err, &se)
}

func TestReadTextSample_InvalidUTF8(t *testing.T) {
	sample := join(u16b(2), []byte{0xFF, 0xFE})
	sr := newTestReader(sample)

	_, err := readTextSample(sr, 0, int64(len(sample)))
	var ee *types.InvalidEncodingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "utf-8", ee.Encoding)
}

func TestReadTextSample_TooShort(t *testing.T) {
	sr := newTestReader([]byte{0x00})
	title, err := readTextSample(sr, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "", title)
}

func TestChapterDurations(t *testing.T) {
	mh := movieHeader{timescale: 1000, duration: 10_000}
	chapters := []types.Chapter{
		{Start: 0},
		{Start: 4 * time.Second},
		{Start: 9 * time.Second},
	}

	got := chapterDurations(chapters, mh)
	assert.Equal(t, []uint32{4000, 5000, 1000}, got)
}

func TestChapterSamples(t *testing.T) {
	payload, sizes, err := chapterSamples([]types.Chapter{
		{Title: "Ab"},
		{Title: "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, join(u16b(2), []byte("Ab"), u16b(1), []byte("C")), payload)
	assert.Equal(t, []uint32{4, 3}, sizes)
}

func TestExpandDurations(t *testing.T) {
	entries := []sttsEntry{{count: 2, duration: 100}, {count: 1, duration: 50}}

	assert.Equal(t, []uint32{100, 100, 50}, expandDurations(entries, 3))
	// Short tables pad with zero, long ones are capped.
	assert.Equal(t, []uint32{100, 100, 50, 0}, expandDurations(entries, 4))
	assert.Equal(t, []uint32{100, 100}, expandDurations(entries, 2))
}

package mp4

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// Synthetic atom builders shared by the package tests. They assemble
// container bytes in memory and feed them through a SafeReader, so no test
// depends on fixture files.

func u16b(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func u32b(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func u64b(v uint64) []byte {
	return append(u32b(uint32(v>>32)), u32b(uint32(v))...)
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// testAtom builds an atom with an 8-byte header around the given content.
func testAtom(fourcc string, parts ...[]byte) []byte {
	content := join(parts...)
	b := make([]byte, 8, 8+len(content))
	copy(b, u32b(uint32(8+len(content))))
	copy(b[4:8], fourcc)
	return append(b, content...)
}

// fullTestAtom builds a full atom: version byte, zero flags, content.
func fullTestAtom(fourcc string, version byte, parts ...[]byte) []byte {
	content := append([][]byte{{version, 0, 0, 0}}, parts...)
	return testAtom(fourcc, content...)
}

func newTestReader(data []byte) *binary.SafeReader {
	return binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.m4b")
}

// dataAtomBytes builds one ilst data atom with the given type code.
func dataAtomBytes(code uint32, payload []byte) []byte {
	return testAtom("data", u32b(code), u32b(0), payload)
}

// writeDataBytes serializes one value through the data atom encoder.
func writeDataBytes(t *testing.T, d types.Data) []byte {
	t.Helper()
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	require.NoError(t, writeData(sw, d))
	return buf.Bytes()
}

func mvhdV0(timescale, duration uint32) []byte {
	return fullTestAtom("mvhd", 0,
		u32b(0), u32b(0), // creation, modification time
		u32b(timescale), u32b(duration),
		make([]byte, 80),
	)
}

func tkhdV0(id, duration uint32) []byte {
	return fullTestAtom("tkhd", 0,
		u32b(0), u32b(0),
		u32b(id),
		u32b(0),
		u32b(duration),
		make([]byte, 60),
	)
}

func mdhdV0(timescale, duration uint32) []byte {
	return fullTestAtom("mdhd", 0,
		u32b(0), u32b(0),
		u32b(timescale), u32b(duration),
		u16b(0x55C4), u16b(0),
	)
}

func hdlrBytes(handler string) []byte {
	return fullTestAtom("hdlr",
		0,
		u32b(0),
		[]byte(handler),
		make([]byte, 12),
		[]byte{0},
	)
}

func stsdMp4a(channels uint16, sampleRate uint32) []byte {
	entry := testAtom("mp4a",
		make([]byte, 6), // reserved
		u16b(1),         // data reference index
		make([]byte, 8), // version, revision, vendor
		u16b(channels),
		u16b(16),        // sample size
		make([]byte, 4), // compression id, packet size
		u32b(sampleRate<<16),
	)
	return fullTestAtom("stsd", 0, u32b(1), entry)
}

func sttsBytes(entries ...[2]uint32) []byte {
	parts := [][]byte{u32b(uint32(len(entries)))}
	for _, e := range entries {
		parts = append(parts, u32b(e[0]), u32b(e[1]))
	}
	return fullTestAtom("stts", 0, parts...)
}

func stscBytes(entries ...[2]uint32) []byte {
	parts := [][]byte{u32b(uint32(len(entries)))}
	for _, e := range entries {
		parts = append(parts, u32b(e[0]), u32b(e[1]), u32b(1))
	}
	return fullTestAtom("stsc", 0, parts...)
}

func stszBytes(sizes ...uint32) []byte {
	parts := [][]byte{u32b(0), u32b(uint32(len(sizes)))}
	for _, s := range sizes {
		parts = append(parts, u32b(s))
	}
	return fullTestAtom("stsz", 0, parts...)
}

func stcoBytes(offsets ...uint32) []byte {
	parts := [][]byte{u32b(uint32(len(offsets)))}
	for _, o := range offsets {
		parts = append(parts, u32b(o))
	}
	return fullTestAtom("stco", 0, parts...)
}

func ftypBytes() []byte {
	return testAtom("ftyp", []byte("M4A "), u32b(0x200), []byte("M4A mp42isom"))
}

// audioTrak builds a complete sound track whose chunk-offset table holds
// the given values.
func audioTrak(id uint32, stco []byte) []byte {
	stbl := testAtom("stbl",
		stsdMp4a(2, 44100),
		sttsBytes([2]uint32{3, 1000}),
		stscBytes([2]uint32{1, 1}),
		stszBytes(4, 4, 4),
		stco,
	)
	return testAtom("trak",
		tkhdV0(id, 120_000),
		testAtom("mdia",
			mdhdV0(44100, 5_292_000),
			hdlrBytes("soun"),
			testAtom("minf", stbl),
		),
	)
}

// buildAudioFile assembles ftyp | moov | mdat. The moov holds one audio
// track pointing at the mdat chunks plus the given extra moov children
// (udta content, more tracks). Chunk offsets are computed against the
// final layout.
func buildAudioFile(t *testing.T, chunkSizes []int, extraMoov ...[]byte) []byte {
	t.Helper()

	var mdatPayload []byte
	for _, n := range chunkSizes {
		chunk := bytes.Repeat([]byte{0xAA}, n)
		mdatPayload = append(mdatPayload, chunk...)
	}
	mdat := testAtom("mdat", mdatPayload)

	build := func(offsets []uint32) []byte {
		moovParts := append([][]byte{
			mvhdV0(1000, 120_000),
			audioTrak(1, stcoBytes(offsets...)),
		}, extraMoov...)
		moov := testAtom("moov", moovParts...)
		return join(ftypBytes(), moov, mdat)
	}

	// First pass with placeholder offsets to learn the layout, second
	// pass with the real ones.
	placeholder := make([]uint32, len(chunkSizes))
	probe := build(placeholder)
	mdatContent := len(probe) - len(mdatPayload)

	offsets := make([]uint32, len(chunkSizes))
	at := mdatContent
	for i, n := range chunkSizes {
		offsets[i] = uint32(at)
		at += n
	}
	return build(offsets)
}

// findAtomPath walks nested atoms by fourcc from the top level of data,
// returning the head of the last path element.
func findAtomPath(t *testing.T, data []byte, path ...string) (Head, bool) {
	t.Helper()

	sr := newTestReader(data)
	start, end := int64(0), int64(len(data))
	var head Head
	for _, fourcc := range path {
		h, found, err := findAtom(sr, start, end, types.FourccOf(fourcc))
		if err != nil || !found {
			return Head{}, false
		}
		head = h
		start = h.ContentOffset()
		if h.Fourcc == Metadata {
			start += 4
		}
		end = h.End()
	}
	return head, true
}

// Package mp4 implements the MP4/QuickTime atom tree reader, the metadata
// codec, the chapter resolver, and the tree writer with chunk-offset
// patching.
package mp4

import (
	"math"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// Fourcc is a 4-byte atom type code.
type Fourcc = types.Fourcc

// Atom type codes in the relevant container structure:
//
//	ftyp
//	mdat
//	moov
//	├─ mvhd
//	├─ trak
//	│  ├─ tkhd
//	│  ├─ tref
//	│  │  └─ chap
//	│  └─ mdia
//	│     ├─ mdhd
//	│     ├─ hdlr
//	│     └─ minf
//	│        └─ stbl
//	│           ├─ stsd
//	│           ├─ stts
//	│           ├─ stsc
//	│           ├─ stsz
//	│           ├─ stco
//	│           └─ co64
//	└─ udta
//	   ├─ chpl
//	   └─ meta
//	      ├─ hdlr
//	      └─ ilst
//	         ├─ **** (any fourcc)
//	         │  └─ data
//	         └─ ---- (freeform)
//	            ├─ mean
//	            ├─ name
//	            └─ data
var (
	FileType       = types.FourccOf("ftyp")
	MediaData      = types.FourccOf("mdat")
	Movie          = types.FourccOf("moov")
	MovieHeader    = types.FourccOf("mvhd")
	Track          = types.FourccOf("trak")
	TrackHeader    = types.FourccOf("tkhd")
	TrackReference = types.FourccOf("tref")
	ChapterRef     = types.FourccOf("chap")
	Media          = types.FourccOf("mdia")
	MediaHeader    = types.FourccOf("mdhd")
	Handler        = types.FourccOf("hdlr")
	MediaInfo      = types.FourccOf("minf")
	BaseMediaHead  = types.FourccOf("gmhd")
	BaseMediaInfo  = types.FourccOf("gmin")
	DataInfo       = types.FourccOf("dinf")
	DataReference  = types.FourccOf("dref")
	URLMedia       = types.FourccOf("url ")
	SampleTable    = types.FourccOf("stbl")
	SampleDesc     = types.FourccOf("stsd")
	TimeToSample   = types.FourccOf("stts")
	SampleToChunk  = types.FourccOf("stsc")
	SampleSize     = types.FourccOf("stsz")
	ChunkOffset32  = types.FourccOf("stco")
	ChunkOffset64  = types.FourccOf("co64")
	Mp4Audio       = types.FourccOf("mp4a")
	TextMedia      = types.FourccOf("text")
	UserData       = types.FourccOf("udta")
	ChapterList    = types.FourccOf("chpl")
	Metadata       = types.FourccOf("meta")
	ItemList       = types.FourccOf("ilst")
	DataAtom       = types.FourccOf("data")
	MeanAtom       = types.FourccOf("mean")
	NameAtom       = types.FourccOf("name")
	Free           = types.FourccOf("free")
	Freeform       = types.FourccOf("----")

	SoundHandler = types.FourccOf("soun")
	TextHandler  = types.FourccOf("text")
)

// containers lists the atom types the write-side tree descends into. The
// item list is handled wholesale and everything unknown stays an opaque
// leaf, so foreign content round-trips untouched.
var containers = map[Fourcc]bool{
	Movie:          true,
	Track:          true,
	TrackReference: true,
	Media:          true,
	MediaInfo:      true,
	SampleTable:    true,
	UserData:       true,
	Metadata:       true,
}

// Head describes one atom: its type code, total size including the header,
// the header length (8, or 16 for the 64-bit extended form), and the
// absolute offset of the atom's first byte in the source.
type Head struct {
	Fourcc    Fourcc
	Size      uint64
	HeaderLen uint8
	Offset    int64
}

// ContentOffset returns the absolute offset where the atom's content starts.
func (h Head) ContentOffset() int64 {
	return h.Offset + int64(h.HeaderLen)
}

// ContentLen returns the size of the atom's content, excluding the header.
func (h Head) ContentLen() int64 {
	return int64(h.Size) - int64(h.HeaderLen)
}

// End returns the absolute offset just past the atom.
func (h Head) End() int64 {
	return h.Offset + int64(h.Size)
}

// parseHead reads an atom header at offset, validating the declared size
// against the end of the enclosing scope. A 32-bit size of 1 switches to the
// 64-bit extended form; a size of 0 resolves to the remaining scope. The
// resolved size caps every downstream allocation for this atom.
func parseHead(sr *binary.SafeReader, offset, end int64) (Head, error) {
	remaining := end - offset
	if remaining < 8 {
		return Head{}, &types.TruncatedError{
			Path:   sr.Path(),
			What:   "atom header",
			Offset: offset,
			Need:   8,
			Have:   remaining,
		}
	}

	size32, err := binary.Read[uint32](sr, offset, "atom size")
	if err != nil {
		return Head{}, err
	}

	var fourcc Fourcc
	if err := sr.ReadAt(fourcc[:], offset+4, "atom type"); err != nil {
		return Head{}, err
	}

	head := Head{
		Fourcc:    fourcc,
		Offset:    offset,
		HeaderLen: 8,
	}

	switch size32 {
	case 0:
		// Atom extends to the end of the enclosing scope.
		head.Size = uint64(remaining)
	case 1:
		if remaining < 16 {
			return Head{}, &types.TruncatedError{
				Path:   sr.Path(),
				Atom:   fourcc.String(),
				What:   "extended atom size",
				Offset: offset,
				Need:   16,
				Have:   remaining,
			}
		}
		size64, err := binary.Read[uint64](sr, offset+8, "extended atom size")
		if err != nil {
			return Head{}, err
		}
		head.Size = size64
		head.HeaderLen = 16
	default:
		head.Size = uint64(size32)
	}

	if head.Size < uint64(head.HeaderLen) || head.Size > uint64(remaining) {
		return Head{}, &types.SizeOverflowError{
			Path:   sr.Path(),
			Atom:   fourcc.String(),
			Offset: offset,
			Size:   head.Size,
			Bound:  uint64(remaining),
		}
	}

	return head, nil
}

// findAtom scans [start, end) for the first atom of the given type.
// Returns found=false when the scope holds no such atom.
func findAtom(sr *binary.SafeReader, start, end int64, fourcc Fourcc) (Head, bool, error) {
	offset := start
	for offset < end {
		head, err := parseHead(sr, offset, end)
		if err != nil {
			return Head{}, false, err
		}
		if head.Fourcc == fourcc {
			return head, true, nil
		}
		offset = head.End()
	}
	return Head{}, false, nil
}

// fullHead reads the 1-byte version and 3-byte flags field that prefixes
// full atoms (mvhd, mdhd, meta, chpl, ...), returning the version and the
// flags as a single value.
func fullHead(r *binary.Reader, what string) (version uint8, flags uint32, err error) {
	vf, err := binary.ReadValue[uint32](r, what)
	if err != nil {
		return 0, 0, err
	}
	return uint8(vf >> 24), vf & 0x00FFFFFF, nil
}

// needsExtendedSize reports whether a content length requires the 64-bit
// extended header form.
func needsExtendedSize(contentLen uint64) bool {
	return contentLen+8 > math.MaxUint32
}

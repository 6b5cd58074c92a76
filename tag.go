package mp4meta

import (
	"io"

	"github.com/simonhull/mp4meta/internal/types"
)

// Well-known item identifiers.
var (
	IdentTitle         = FourccOf("\xa9nam")
	IdentArtist        = FourccOf("\xa9ART")
	IdentAlbum         = FourccOf("\xa9alb")
	IdentAlbumArtist   = FourccOf("aART")
	IdentComposer      = FourccOf("\xa9wrt")
	IdentComment       = FourccOf("\xa9cmt")
	IdentGenre         = FourccOf("\xa9gen")
	IdentStandardGenre = FourccOf("gnre")
	IdentYear          = FourccOf("\xa9day")
	IdentTrackNumber   = FourccOf("trkn")
	IdentDiscNumber    = FourccOf("disk")
	IdentArtwork       = FourccOf("covr")
	IdentMediaType     = FourccOf("stik")
	IdentCompilation   = FourccOf("cpil")
	IdentGapless       = FourccOf("pgap")
)

// Tag is an opened MPEG-4 file's metadata.
//
// The item list, both chapter sequences, and the audio properties are
// plain exported fields; mutate them directly or through the accessors,
// then call Save to write the file back.
//
// Always call Close when done to release the file handle:
//
//	tag, err := mp4meta.Open("book.m4b")
//	if err != nil {
//		return err
//	}
//	defer tag.Close()
type Tag struct {
	types.Tag

	// Path to the file, empty when opened from a reader.
	Path string

	// Size of the source in bytes.
	Size int64

	reader io.ReaderAt
}

// Close releases resources held by the tag.
//
// After Close is called, the Tag can still be inspected but not saved.
func (t *Tag) Close() error {
	if closer, ok := t.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Data returns every value stored under the given identifier, in list
// order across repeated items.
func (t *Tag) Data(ident Ident) []Data {
	var out []Data
	for _, item := range t.Items {
		if item.Ident == ident {
			out = append(out, item.Data...)
		}
	}
	return out
}

// SetData replaces all values under the identifier with the given ones.
//
// The first existing item keeps its position in the list; later
// duplicates are removed. A missing item is appended.
func (t *Tag) SetData(ident Ident, data ...Data) {
	replaced := false
	kept := t.Items[:0]
	for _, item := range t.Items {
		if item.Ident != ident {
			kept = append(kept, item)
			continue
		}
		if !replaced {
			item.Data = data
			kept = append(kept, item)
			replaced = true
		}
	}
	t.Items = kept
	if !replaced {
		t.Items = append(t.Items, MetaItem{Ident: ident, Data: data})
	}
}

// AddData appends values to the item with the given identifier, creating
// the item when absent.
func (t *Tag) AddData(ident Ident, data ...Data) {
	for i := range t.Items {
		if t.Items[i].Ident == ident {
			t.Items[i].Data = append(t.Items[i].Data, data...)
			return
		}
	}
	t.Items = append(t.Items, MetaItem{Ident: ident, Data: data})
}

// RemoveData removes every item with the given identifier.
func (t *Tag) RemoveData(ident Ident) {
	kept := t.Items[:0]
	for _, item := range t.Items {
		if item.Ident != ident {
			kept = append(kept, item)
		}
	}
	t.Items = kept
}

// firstString returns the first textual value under the identifier.
func (t *Tag) firstString(ident Ident) string {
	for _, d := range t.Data(ident) {
		if d.Kind == KindUTF8 || d.Kind == KindUTF16 {
			return d.Str
		}
	}
	return ""
}

func (t *Tag) allStrings(ident Ident) []string {
	var out []string
	for _, d := range t.Data(ident) {
		if d.Kind == KindUTF8 || d.Kind == KindUTF16 {
			out = append(out, d.Str)
		}
	}
	return out
}

// setString stores a single UTF-8 value, removing the item when the
// string is empty.
func (t *Tag) setString(ident Ident, s string) {
	if s == "" {
		t.RemoveData(ident)
		return
	}
	t.SetData(ident, UTF8(s))
}

// Title returns the track or book title.
func (t *Tag) Title() string { return t.firstString(IdentTitle) }

// SetTitle sets the title; an empty string removes it.
func (t *Tag) SetTitle(s string) { t.setString(IdentTitle, s) }

// Artist returns the first artist.
func (t *Tag) Artist() string { return t.firstString(IdentArtist) }

// Artists returns every artist value in order.
func (t *Tag) Artists() []string { return t.allStrings(IdentArtist) }

// SetArtist sets the artist; an empty string removes it.
func (t *Tag) SetArtist(s string) { t.setString(IdentArtist, s) }

// Album returns the album.
func (t *Tag) Album() string { return t.firstString(IdentAlbum) }

// SetAlbum sets the album; an empty string removes it.
func (t *Tag) SetAlbum(s string) { t.setString(IdentAlbum, s) }

// AlbumArtist returns the album artist.
func (t *Tag) AlbumArtist() string { return t.firstString(IdentAlbumArtist) }

// SetAlbumArtist sets the album artist; an empty string removes it.
func (t *Tag) SetAlbumArtist(s string) { t.setString(IdentAlbumArtist, s) }

// Composer returns the composer (narrator, for audiobooks).
func (t *Tag) Composer() string { return t.firstString(IdentComposer) }

// SetComposer sets the composer; an empty string removes it.
func (t *Tag) SetComposer(s string) { t.setString(IdentComposer, s) }

// Comment returns the comment.
func (t *Tag) Comment() string { return t.firstString(IdentComment) }

// SetComment sets the comment; an empty string removes it.
func (t *Tag) SetComment(s string) { t.setString(IdentComment, s) }

// Year returns the release date string from the ©day item.
func (t *Tag) Year() string { return t.firstString(IdentYear) }

// SetYear sets the release date string; an empty string removes it.
func (t *Tag) SetYear(s string) { t.setString(IdentYear, s) }

// Genre returns the genre, resolving a standard gnre code through the
// genre table when no ©gen string is present.
func (t *Tag) Genre() string {
	if s := t.firstString(IdentGenre); s != "" {
		return s
	}
	for _, d := range t.Data(IdentStandardGenre) {
		if len(d.Bytes) < 2 {
			continue
		}
		code := uint16(d.Bytes[0])<<8 | uint16(d.Bytes[1])
		if name, ok := StandardGenre(code); ok {
			return name
		}
	}
	return ""
}

// SetGenre sets the genre. A name from the standard genre table is stored
// as a compact gnre code, anything else as a ©gen string; an empty string
// removes both.
func (t *Tag) SetGenre(s string) {
	if s == "" {
		t.RemoveData(IdentGenre)
		t.RemoveData(IdentStandardGenre)
		return
	}
	if code, ok := StandardGenreCode(s); ok {
		t.RemoveData(IdentGenre)
		t.SetData(IdentStandardGenre, Reserved(0, []byte{byte(code >> 8), byte(code)}))
		return
	}
	t.RemoveData(IdentStandardGenre)
	t.SetData(IdentGenre, UTF8(s))
}

// TrackNumber returns the track number and total track count; both zero
// when absent.
func (t *Tag) TrackNumber() (track, total uint16) {
	return t.numberPair(IdentTrackNumber)
}

// SetTrackNumber sets the track number and total; zero for both removes
// the item.
func (t *Tag) SetTrackNumber(track, total uint16) {
	if track == 0 && total == 0 {
		t.RemoveData(IdentTrackNumber)
		return
	}
	t.SetData(IdentTrackNumber, Reserved(0, []byte{
		0, 0,
		byte(track >> 8), byte(track),
		byte(total >> 8), byte(total),
		0, 0,
	}))
}

// DiscNumber returns the disc number and total disc count; both zero when
// absent.
func (t *Tag) DiscNumber() (disc, total uint16) {
	return t.numberPair(IdentDiscNumber)
}

// SetDiscNumber sets the disc number and total; zero for both removes the
// item.
func (t *Tag) SetDiscNumber(disc, total uint16) {
	if disc == 0 && total == 0 {
		t.RemoveData(IdentDiscNumber)
		return
	}
	t.SetData(IdentDiscNumber, Reserved(0, []byte{
		0, 0,
		byte(disc >> 8), byte(disc),
		byte(total >> 8), byte(total),
	}))
}

// numberPair decodes the trkn/disk payload: two zero bytes, a big-endian
// number, and a big-endian total.
func (t *Tag) numberPair(ident Ident) (uint16, uint16) {
	for _, d := range t.Data(ident) {
		if len(d.Bytes) < 6 {
			continue
		}
		n := uint16(d.Bytes[2])<<8 | uint16(d.Bytes[3])
		total := uint16(d.Bytes[4])<<8 | uint16(d.Bytes[5])
		return n, total
	}
	return 0, 0
}

// Artworks returns the embedded cover images in order.
//
// The slice is empty when the file has no artwork or it was skipped with
// WithoutImageData.
func (t *Tag) Artworks() []Data {
	var out []Data
	for _, d := range t.Data(IdentArtwork) {
		if d.IsImage() {
			out = append(out, d)
		}
	}
	return out
}

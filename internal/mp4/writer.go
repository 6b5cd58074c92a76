package mp4

import (
	"io"
	"math"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// Write produces a complete replacement byte stream for the source: the
// branches selected by cfg are regenerated from the tag, everything else is
// copied through byte-identical. Container sizes are recomputed strictly
// post-order, and chunk-offset tables are shifted by the exact number of
// bytes the media data moved.
func Write(sr *binary.SafeReader, w io.Writer, tag *types.Tag, cfg WriteConfig) error {
	tops, moov, err := parseTopLevel(sr)
	if err != nil {
		return err
	}
	if moov == nil {
		return &types.UnexpectedAtomTypeError{
			Path:     sr.Path(),
			Expected: Movie.String(),
		}
	}

	if cfg.MetaItems {
		if err := applyMetaItems(moov.n, tag.Items); err != nil {
			return err
		}
	}
	if cfg.ChapterList {
		if err := applyChapterList(moov.n, tag.ChapterList, cfg.chplTimescale()); err != nil {
			return err
		}
	}

	var chap *chapterTrack
	if cfg.ChapterTrack {
		chap, err = applyChapterTrack(sr, moov.n, tag.ChapterTrack)
		if err != nil {
			return err
		}
		if chap != nil {
			tops = append(tops, &topAtom{n: leaf(MediaData, chap.samples)})
		}
	}

	if err := patchLayout(sr, tops, moov.n, chap); err != nil {
		return err
	}

	sw := binary.NewSafeWriter(w)
	for _, t := range tops {
		if err := t.n.serialize(sr, sw); err != nil {
			return err
		}
	}
	return nil
}

// topAtom pairs a top-level node with its original position, which survives
// size recomputation so offset deltas stay exact.
type topAtom struct {
	n       *node
	origOff int64
	origEnd int64
}

func parseTopLevel(sr *binary.SafeReader) ([]*topAtom, *topAtom, error) {
	var (
		tops []*topAtom
		moov *topAtom
	)

	offset := int64(0)
	for offset < sr.Size() {
		head, err := parseHead(sr, offset, sr.Size())
		if err != nil {
			return nil, nil, err
		}

		n := &node{head: head}
		if head.Fourcc == Movie {
			n.children, err = parseTree(sr, head.ContentOffset(), head.End())
			if err != nil {
				return nil, nil, err
			}
		}

		t := &topAtom{n: n, origOff: head.Offset, origEnd: head.End()}
		if head.Fourcc == Movie && moov == nil {
			moov = t
		}
		tops = append(tops, t)
		offset = head.End()
	}
	return tops, moov, nil
}

// applyMetaItems replaces the ilst branch with the tag's item list,
// creating the udta/meta/ilst ancestry (with an mdir handler) when the
// source never carried metadata, and removing ilst when the list is empty.
func applyMetaItems(moov *node, items []types.MetaItem) error {
	live := make([]types.MetaItem, 0, len(items))
	for _, item := range items {
		if len(item.Data) > 0 {
			live = append(live, item)
		}
	}

	if len(live) == 0 {
		if udta := moov.child(UserData); udta != nil {
			if meta := udta.child(Metadata); meta != nil {
				if ilst := meta.child(ItemList); ilst != nil {
					ilst.markRemoved()
				}
			}
		}
		return nil
	}

	udta := moov.ensureChild(UserData)
	meta := udta.child(Metadata)
	if meta == nil {
		meta = udta.ensureChild(Metadata)
		meta.extra = []byte{0, 0, 0, 0}
		meta.children = append(meta.children, leaf(Handler, metaHdlrPayload()))
	}
	ilst := meta.ensureChild(ItemList)

	payload, err := ilstPayload(live)
	if err != nil {
		return err
	}
	ilst.setPayload(payload)
	return nil
}

// metaHdlrPayload is the metadata handler the meta atom requires: an mdir
// handler from appl.
func metaHdlrPayload() []byte {
	p := make([]byte, 0, 25)
	p = append(p, 0, 0, 0, 0) // version, flags
	p = append(p, 0, 0, 0, 0) // component type
	p = append(p, 'm', 'd', 'i', 'r')
	p = append(p, 'a', 'p', 'p', 'l')
	p = append(p, 0, 0, 0, 0, 0, 0, 0, 0)
	p = append(p, 0) // empty name
	return p
}

// applyChapterList regenerates or removes the chpl atom under udta.
func applyChapterList(moov *node, chapters []types.Chapter, timescale uint32) error {
	if len(chapters) == 0 {
		if udta := moov.child(UserData); udta != nil {
			if chpl := udta.child(ChapterList); chpl != nil {
				chpl.markRemoved()
			}
		}
		return nil
	}

	payload, err := chplPayload(chapters, timescale)
	if err != nil {
		return err
	}
	moov.ensureChild(UserData).ensureChild(ChapterList).setPayload(payload)
	return nil
}

// applyChapterTrack removes any existing chapter text track plus its
// tref/chap reference, and builds a replacement track when the tag carries
// chapters. Returns nil when no new track is needed.
func applyChapterTrack(sr *binary.SafeReader, moov *node, chapters []types.Chapter) (*chapterTrack, error) {
	type trakFacts struct {
		n       *node
		id      uint32
		handler Fourcc
		tref    *node
		chapRef *node
		chapIDs []uint32
	}

	var (
		traks   []*trakFacts
		maxID   uint32
		refIDs  = map[uint32]bool{}
		audioTk *trakFacts
	)

	for _, c := range moov.children {
		if c.head.Fourcc != Track || c.removed {
			continue
		}
		facts := &trakFacts{n: c}

		if tkhd := c.child(TrackHeader); tkhd != nil {
			id, err := parseTrackID(sr, tkhd.head)
			if err != nil {
				return nil, err
			}
			facts.id = id
			if id > maxID {
				maxID = id
			}
		}
		if mdia := c.child(Media); mdia != nil {
			if hdlr := mdia.child(Handler); hdlr != nil {
				handler, err := parseHandlerType(sr, hdlr.head)
				if err != nil {
					return nil, err
				}
				facts.handler = handler
			}
		}
		if tref := c.child(TrackReference); tref != nil {
			facts.tref = tref
			if ref := tref.child(ChapterRef); ref != nil {
				ids, err := parseChapRefs(sr, tref.head)
				if err != nil {
					return nil, err
				}
				facts.chapRef = ref
				facts.chapIDs = ids
				for _, id := range ids {
					refIDs[id] = true
				}
			}
		}

		if facts.handler == SoundHandler && audioTk == nil {
			audioTk = facts
		}
		traks = append(traks, facts)
	}

	// Drop the referenced text tracks and every chap reference.
	for _, t := range traks {
		if refIDs[t.id] && t.handler == TextHandler {
			t.n.markRemoved()
		}
		if t.chapRef != nil {
			t.chapRef.markRemoved()
			if emptyContainer(t.tref) {
				t.tref.markRemoved()
			}
		}
	}

	if len(chapters) == 0 {
		return nil, nil
	}

	mvhdNode := moov.child(MovieHeader)
	if mvhdNode == nil {
		return nil, &types.UnexpectedAtomTypeError{
			Path:     sr.Path(),
			Expected: MovieHeader.String(),
			Parent:   Movie.String(),
			Offset:   moov.head.Offset,
		}
	}
	mh, err := parseMvhd(sr, mvhdNode.head)
	if err != nil {
		return nil, err
	}

	if audioTk == nil {
		return nil, &types.UnsupportedWriteError{
			Reason: "no audio track to attach a chapter track to",
		}
	}

	newID := maxID + 1
	chap, err := buildChapterTrack(chapters, newID, mh)
	if err != nil {
		return nil, err
	}
	moov.children = append(moov.children, chap.trak)
	moov.markDirty()

	refPayload := []byte{byte(newID >> 24), byte(newID >> 16), byte(newID >> 8), byte(newID)}
	tref := audioTk.n.ensureChild(TrackReference)
	tref.children = append(tref.children, leaf(ChapterRef, refPayload))
	tref.markDirty()

	return chap, nil
}

func emptyContainer(n *node) bool {
	for _, c := range n.children {
		if !c.removed {
			return false
		}
	}
	return true
}

// patchLayout runs the size/layout/offset fixpoint: recompute sizes,
// lay the top-level atoms out, shift every chunk-offset entry by the delta
// of the region it points into, and convert stco tables to co64 (which
// changes sizes again) whenever a shifted offset no longer fits 32 bits.
func patchLayout(sr *binary.SafeReader, tops []*topAtom, moov *node, chap *chapterTrack) error {
	tables, err := collectChunkTables(sr, moov, chap)
	if err != nil {
		return err
	}

	for iter := 0; ; iter++ {
		if iter > len(tables)+2 {
			return &types.UnsupportedWriteError{
				Reason: "chunk offset layout did not converge",
			}
		}

		// Sizes first, then layout.
		newOff := int64(0)
		type span struct {
			origOff, origEnd, newOff int64
		}
		var (
			spans      []span
			chapMdatAt int64 = -1
		)
		for _, t := range tops {
			size := t.n.computeSize()
			if t.n.inserted {
				if chap != nil && t.n.head.Fourcc == MediaData {
					chapMdatAt = newOff
				}
			} else {
				spans = append(spans, span{t.origOff, t.origEnd, newOff})
			}
			newOff += int64(size)
		}

		shiftFor := func(o uint64) int64 {
			for _, s := range spans {
				if int64(o) >= s.origOff && int64(o) < s.origEnd {
					return s.newOff - s.origOff
				}
			}
			return 0
		}

		changed := false
		for _, tbl := range tables {
			if shiftTable(tbl, shiftFor) {
				changed = true
			}
		}

		if chap != nil && chapMdatAt >= 0 {
			// The chapter samples sit right after the mdat header.
			sampleOff := uint64(chapMdatAt) + 8
			want := ChunkOffset32
			if sampleOff > math.MaxUint32 {
				want = ChunkOffset64
			}
			if chap.stco.head.Fourcc != want {
				chap.stco.head.Fourcc = want
				changed = true
			}
			chap.stco.setPayload(chunkOffsetPayload(want, []uint64{sampleOff}))
		}

		if !changed {
			return nil
		}
	}
}

// chunkTable pairs a source-backed stco/co64 node with its original
// values, so repeated patch passes stay anchored to the source.
type chunkTable struct {
	node   *node
	values []uint64
}

// collectChunkTables parses every chunk-offset table of the surviving
// source tracks. The freshly built chapter track's table is handled
// separately by the layout pass.
func collectChunkTables(sr *binary.SafeReader, moov *node, chap *chapterTrack) ([]*chunkTable, error) {
	var tables []*chunkTable

	var walk func(n *node) error
	walk = func(n *node) error {
		if n.removed || n.inserted {
			return nil
		}
		if n.head.Fourcc == ChunkOffset32 || n.head.Fourcc == ChunkOffset64 {
			values, err := parseChunkOffsets(sr, n.head)
			if err != nil {
				return err
			}
			tables = append(tables, &chunkTable{node: n, values: values})
			return nil
		}
		for _, c := range n.children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(moov); err != nil {
		return nil, err
	}
	return tables, nil
}

// shiftTable rewrites a table's entries shifted per offset, anchored to the
// original source values so repeated passes stay exact. Returns true when
// the table had to convert from stco to co64, which changes its size.
func shiftTable(tbl *chunkTable, shiftFor func(uint64) int64) (converted bool) {
	shifted := make([]uint64, len(tbl.values))
	moved := false
	for i, v := range tbl.values {
		d := shiftFor(v)
		shifted[i] = uint64(int64(v) + d)
		if d != 0 {
			moved = true
		}
	}

	if tbl.node.head.Fourcc == ChunkOffset32 && overflows32(shifted) {
		tbl.node.head.Fourcc = ChunkOffset64
		tbl.node.setPayload(chunkOffsetPayload(ChunkOffset64, shifted))
		return true
	}
	if moved || tbl.node.dirty {
		tbl.node.setPayload(chunkOffsetPayload(tbl.node.head.Fourcc, shifted))
	}
	return false
}

func overflows32(values []uint64) bool {
	for _, v := range values {
		if v > math.MaxUint32 {
			return true
		}
	}
	return false
}

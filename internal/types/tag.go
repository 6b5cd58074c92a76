package types

// Tag is the aggregate produced by one read of an MP4 file: the ordered
// metadata item list, both chapter representations, derived audio facts,
// and any non-fatal warnings collected along the way.
type Tag struct {
	// Items is the ordered metadata item list from ilst. Insertion order
	// is preserved, including repeated identifiers.
	Items []MetaItem

	// ChapterList holds chapters sourced from (and written to) the chpl
	// atom.
	ChapterList []Chapter

	// ChapterTrack holds chapters sourced from (and written to) a
	// QuickTime chapter text track.
	ChapterTrack []Chapter

	// Audio holds derived technical properties. Zero when the file has no
	// audio track, which is not an error.
	Audio AudioInfo

	// Warnings encountered during parsing (non-fatal issues).
	Warnings []Warning
}

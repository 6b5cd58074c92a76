package types

import "time"

// Chapter represents a chapter marker in an MP4 file.
//
// MP4 containers can carry chapters in two mutually independent forms: the
// Nero chapter list (a flat chpl atom under udta) and a QuickTime chapter
// track (a text-sample track referenced from the audio track via tref/chap).
// A file may carry either, both, or neither; the two sequences on a Tag are
// never merged, so a caller can edit one representation without touching
// the other.
type Chapter struct {
	// Start is the chapter's start position measured from the beginning
	// of the presentation.
	Start time.Duration

	// Title is the chapter's display title.
	Title string
}

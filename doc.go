// Package mp4meta reads and writes iTunes-style metadata in MPEG-4 audio
// files (M4A, M4B, M4P and friends).
//
// # Quick Start
//
// Reading metadata:
//
//	tag, err := mp4meta.Open("audiobook.m4b")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tag.Close()
//
//	fmt.Printf("%s - %s\n", tag.Artist(), tag.Title())
//	fmt.Printf("Duration: %s\n", tag.Audio.Duration)
//
// Writing it back:
//
//	tag.SetTitle("New Title")
//	if err := tag.Save(); err != nil {
//		log.Fatal(err)
//	}
//
// # What It Handles
//
//   - iTunes metadata atoms (ilst), including freeform ---- items and
//     embedded JPEG/PNG artwork
//   - Chapters, both as a Nero chpl atom and as a QuickTime chapter text
//     track, kept as two independent sequences
//   - Technical audio properties (codec, duration, channels, sample rate,
//     average bitrate)
//
// # Philosophy
//
// mp4meta follows three principles:
//
// 1. Safety: every atom size is validated against its enclosing scope
// before a single byte is allocated. Hostile or truncated files produce
// structured errors, never panics or unbounded allocations.
//
// 2. Byte fidelity: atoms the library does not touch are copied through
// byte-identical. Saving with a branch disabled leaves that branch exactly
// as it was on disk, and chunk offset tables are patched by the exact
// number of bytes the media data moved.
//
// 3. Graceful degradation: a single malformed metadata entry is dropped
// with a warning while the rest of the list parses. Structurally required
// atoms are never skipped.
//
// # Reading Selectively
//
// Each branch of the parse can be disabled when you only need part of the
// file:
//
//	tag, err := mp4meta.Open("song.m4a",
//	    mp4meta.WithoutImageData(),
//	    mp4meta.WithoutChapterTrack(),
//	)
//
// # Writing Selectively
//
// Save regenerates the metadata, chapter list, and chapter track branches
// by default. Keep options preserve a branch untouched:
//
//	err := tag.Save(mp4meta.KeepChapterTrack())
//
// # Error Handling
//
// Fatal errors abort the read entirely; non-fatal issues are collected in
// Tag.Warnings:
//
//	for _, w := range tag.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// # Concurrency
//
// A Tag is exclusively owned and not safe for concurrent mutation. The
// only concurrency in the package is OpenMany, which parses distinct
// files in parallel.
package mp4meta

package mp4meta

import (
	"github.com/simonhull/mp4meta/internal/mp4"
)

// WriteOption configures behavior when writing files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	err := tag.Save(
//	    mp4meta.KeepChapterTrack(),
//	    mp4meta.WithBackup(".bak"),
//	)
type WriteOption func(*writeOptions)

// writeOptions holds configuration for writing files.
type writeOptions struct {
	config          mp4.WriteConfig
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
}

// defaultWriteOptions returns the default configuration: every branch
// regenerated from the tag.
func defaultWriteOptions() *writeOptions {
	return &writeOptions{
		config: mp4.WriteConfig{
			MetaItems:    true,
			ChapterList:  true,
			ChapterTrack: true,
		},
	}
}

// KeepMetaItems leaves the on-disk ilst metadata untouched instead of
// regenerating it from Tag.Items.
//
// The preserved branch is byte-identical to the source.
func KeepMetaItems() WriteOption {
	return func(o *writeOptions) {
		o.config.MetaItems = false
	}
}

// KeepChapterList leaves the on-disk chpl atom untouched instead of
// regenerating it from Tag.ChapterList.
func KeepChapterList() WriteOption {
	return func(o *writeOptions) {
		o.config.ChapterList = false
	}
}

// KeepChapterTrack leaves the on-disk chapter text track untouched instead
// of regenerating it from Tag.ChapterTrack.
func KeepChapterTrack() WriteOption {
	return func(o *writeOptions) {
		o.config.ChapterTrack = false
	}
}

// WithWriteChplTimescale overrides the timescale chpl chapter start times
// are written at.
//
// The default is 10,000,000. Readers that ignore the chpl convention and
// interpret starts in movie timescale ticks can be accommodated by passing
// the movie timescale here.
func WithWriteChplTimescale(timescale uint32) WriteOption {
	return func(o *writeOptions) {
		o.config.ChplTimescale = timescale
	}
}

// WithBackup creates a backup of the original file before saving.
//
// The backup file will have the specified suffix appended to the original
// filename. For example, WithBackup(".bak") will create "book.m4b.bak"
// before modifying "book.m4b".
//
// If the backup file already exists, it will be overwritten.
func WithBackup(suffix string) WriteOption {
	return func(o *writeOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the file after writing to verify integrity.
//
// After saving, the file is re-opened and parsed to ensure the written
// data can be read back correctly. This adds overhead but provides
// confidence that the save operation succeeded.
func WithValidation() WriteOption {
	return func(o *writeOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// By default, saving updates the file's modification time to the current
// time. This option preserves the original modification time.
func WithPreserveModTime() WriteOption {
	return func(o *writeOptions) {
		o.preserveModTime = true
	}
}

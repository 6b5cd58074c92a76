package mp4meta

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/mp4"
)

// Save writes the tag back to the original file.
//
// This is an atomic operation: the complete replacement file is written
// to a temporary file first, then renamed over the original path. If any
// step fails, the original file remains unchanged.
//
// Options can be provided to customize save behavior:
//
//	err := tag.Save(
//	    mp4meta.WithBackup(".bak"),
//	    mp4meta.WithValidation(),
//	)
func (t *Tag) Save(opts ...WriteOption) error {
	return t.SaveAs(t.Path, opts...)
}

// SaveAs writes the tag to a new location.
//
// This is an atomic operation: writes to a temporary file first, then
// renames to the output path. If any step fails, any partially written
// data is cleaned up.
func (t *Tag) SaveAs(outputPath string, opts ...WriteOption) error {
	options := defaultWriteOptions()
	for _, opt := range opts {
		opt(options)
	}

	if t.reader == nil {
		return fmt.Errorf("tag not open: source reader is nil")
	}
	if outputPath == "" {
		return fmt.Errorf("no output path")
	}

	// Original mod time, in case we need to restore it.
	var origInfo os.FileInfo
	if options.preserveModTime {
		if info, err := os.Stat(t.Path); err == nil {
			origInfo = info
		}
	}

	// Temp file in the same directory as the output, for atomic rename.
	outputDir := filepath.Dir(outputPath)
	tempFile, err := os.CreateTemp(outputDir, ".mp4meta-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if err := t.write(tempFile, options.config); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if options.backupSuffix != "" {
		backupPath := outputPath + options.backupSuffix
		if _, err := os.Stat(outputPath); err == nil {
			if err := os.Rename(outputPath, backupPath); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}
	success = true

	if options.preserveModTime && origInfo != nil {
		_ = os.Chtimes(outputPath, origInfo.ModTime(), origInfo.ModTime())
	}

	if options.validate {
		if err := t.validateWrittenFile(outputPath); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// WriteTo serializes the complete replacement byte stream to any sink.
//
// The tag must still hold its source reader: untouched atoms are copied
// from it byte-for-byte.
func (t *Tag) WriteTo(w io.Writer, opts ...WriteOption) error {
	options := defaultWriteOptions()
	for _, opt := range opts {
		opt(options)
	}

	if t.reader == nil {
		return fmt.Errorf("tag not open: source reader is nil")
	}
	return t.write(w, options.config)
}

func (t *Tag) write(w io.Writer, cfg mp4.WriteConfig) error {
	sr := binary.NewSafeReader(t.reader, t.Size, t.Path)
	return mp4.Write(sr, w, &t.Tag, cfg)
}

// validateWrittenFile re-opens the file and compares key metadata fields.
func (t *Tag) validateWrittenFile(path string) error {
	written, err := Open(path)
	if err != nil {
		return fmt.Errorf("re-open: %w", err)
	}
	defer written.Close()

	if written.Title() != t.Title() {
		return fmt.Errorf("title mismatch: got %q, want %q", written.Title(), t.Title())
	}
	if written.Artist() != t.Artist() {
		return fmt.Errorf("artist mismatch: got %q, want %q", written.Artist(), t.Artist())
	}
	if written.Album() != t.Album() {
		return fmt.Errorf("album mismatch: got %q, want %q", written.Album(), t.Album())
	}
	if len(written.ChapterList) != len(t.ChapterList) {
		return fmt.Errorf("chapter count mismatch: got %d, want %d",
			len(written.ChapterList), len(t.ChapterList))
	}
	return nil
}

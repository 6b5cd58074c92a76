package mp4meta

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/mp4"
)

// Open opens an MPEG-4 file and reads its metadata.
//
// Only the atom tree is parsed; media data is never read into memory. The
// file handle is kept open so a later Save can copy the untouched parts
// of the file through, so always Close the tag when done.
//
// Options can be provided to skip branches of the parse:
//
//	tag, err := mp4meta.Open("book.m4b",
//	    mp4meta.WithoutImageData(),
//	    mp4meta.WithoutAudioInfo(),
//	)
//
// Example:
//
//	tag, err := mp4meta.Open("book.m4b")
//	if err != nil {
//		return err
//	}
//	defer tag.Close()
//	fmt.Printf("%s - %s\n", tag.Artist(), tag.Title())
func Open(path string, opts ...ReadOption) (*Tag, error) {
	cfg := defaultReadConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	tag, err := read(f, stat.Size(), path, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return tag, nil
}

// ReadFrom parses metadata from any random-access byte source.
//
// The reader must remain valid for the life of the Tag if it is going to
// be written back with WriteTo.
func ReadFrom(r io.ReaderAt, size int64, opts ...ReadOption) (*Tag, error) {
	cfg := defaultReadConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return read(r, size, "", cfg)
}

func read(r io.ReaderAt, size int64, path string, cfg readConfig) (*Tag, error) {
	sr := binary.NewSafeReader(r, size, path)
	parsed, err := mp4.Read(sr, cfg)
	if err != nil {
		return nil, err
	}
	return &Tag{
		Tag:    *parsed,
		Path:   path,
		Size:   size,
		reader: r,
	}, nil
}

// OpenMany opens multiple files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths.
//
// If any file fails to open, all successfully opened tags are closed and
// an error is returned.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	tags, err := mp4meta.OpenMany(ctx, paths)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer func() {
//		for _, t := range tags {
//			t.Close()
//		}
//	}()
func OpenMany(ctx context.Context, paths []string, opts ...ReadOption) ([]*Tag, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*Tag, len(paths))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tag, err := Open(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[i] = tag
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, tag := range results {
			if tag != nil {
				tag.Close()
			}
		}
		return nil, err
	}

	return results, nil
}

// Package source opens feed archives from local zips, directories, S3 or
// in-memory uploads as an fs.FS.
package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
)

// DefaultMaxSize bounds archives read into memory.
const DefaultMaxSize = 200 << 20

// ErrArchiveTooLarge is returned when an archive exceeds the size limit.
var ErrArchiveTooLarge = errors.New("archive too large")

// Archive is an opened feed. Close releases any file handle behind it.
type Archive struct {
	fs.FS
	Name   string // feed id derived from the location
	Size   int64  // compressed size, 0 for directories
	closer io.Closer
}

// Close releases the archive.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// ObjectGetter is the subset of the S3 client used to fetch archives.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves archive locations.
type Opener struct {
	MaxSize int64        // 0 uses DefaultMaxSize
	S3      ObjectGetter // required for s3:// locations
}

func (o *Opener) maxSize() int64 {
	if o == nil || o.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return o.MaxSize
}

// Open opens location, which is a local .zip file, a local directory of .txt
// files, or s3://bucket/key.
func (o *Opener) Open(ctx context.Context, location string) (*Archive, error) {
	if strings.HasPrefix(location, "s3://") {
		return o.openS3(ctx, location)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	name := feedName(location)

	if info.IsDir() {
		return &Archive{FS: os.DirFS(location), Name: name}, nil
	}

	if limit := o.maxSize(); info.Size() > limit {
		return nil, tooLarge(info.Size(), limit)
	}
	zr, err := zip.OpenReader(location)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", location, err)
	}
	return &Archive{FS: feedRoot(zr), Name: name, Size: info.Size(), closer: zr}, nil
}

func (o *Opener) openS3(ctx context.Context, location string) (*Archive, error) {
	if o == nil || o.S3 == nil {
		return nil, fmt.Errorf("open archive %s: s3 client not configured", location)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("open archive: invalid s3 location %q, want s3://bucket/key", location)
	}

	out, err := o.S3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer out.Body.Close()

	limit := o.maxSize()
	if out.ContentLength != nil && *out.ContentLength > limit {
		return nil, tooLarge(*out.ContentLength, limit)
	}
	return FromReader(feedName(key), out.Body, limit)
}

// FromReader reads a zip archive from r, up to limit bytes.
func FromReader(name string, r io.Reader, limit int64) (*Archive, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(int64(len(data)), limit)
	}
	return FromBytes(name, data)
}

// FromBytes opens an in-memory zip archive.
func FromBytes(name string, data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}
	return &Archive{FS: feedRoot(zr), Name: feedName(name), Size: int64(len(data))}, nil
}

func tooLarge(size, limit int64) error {
	// Size may only be a lower bound when the limit cut the read short.
	return fmt.Errorf("%w: %s exceeds %s", ErrArchiveTooLarge,
		humanize.Bytes(uint64(size)), humanize.Bytes(uint64(limit)))
}

// feedName turns "path/to/metro-2026.zip" into "metro-2026".
func feedName(location string) string {
	base := filepath.Base(strings.TrimRight(location, "/"))
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".zip") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// feedRoot returns fsys, or its single top-level directory when the tables
// were zipped inside a folder.
func feedRoot(fsys fs.FS) fs.FS {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fsys
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			if path.Ext(e.Name()) == ".txt" {
				return fsys
			}
			continue
		}
		if e.Name() != "__MACOSX" {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return fsys
	}
	sub, err := fs.Sub(fsys, dirs[0])
	if err != nil {
		return fsys
	}
	return sub
}

package dirpack

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"
)

// Entry is one logical record to be written into an archive. The orchestrator
// produces one Entry per surviving path; each is consumed exactly once.
type Entry struct {
	// Path is the slash-separated root-relative entry name.
	Path string
	// Size is the file size in bytes, zero for directories.
	Size int64
	// Mode holds the permission bits stored in the archive.
	Mode fs.FileMode
	// IsDir marks explicit directory entries.
	IsDir bool
	// ModTime is recorded by formats that store a modification time.
	ModTime time.Time
	// Body streams the file content; nil for directories. The writer never
	// buffers the whole body in memory.
	Body io.Reader
}

// Writer serializes entries into one archive container.
//
// Entries must be written sequentially from a single caller: the tar.gz
// writer compresses all entries through one stateful stream. Finalize must
// be called exactly once, including after a failed WriteEntry, so the
// underlying file is flushed and closed.
type Writer interface {
	WriteEntry(e Entry) error
	Finalize() error
}

// Format selects the archive container layout.
type Format uint8

const (
	// FormatPlain is a sequential uncompressed container.
	FormatPlain Format = iota
	// FormatTarGz is a tar stream compressed through one gzip stream.
	FormatTarGz
	// FormatZip is a zip archive with per-entry deflate compression and a
	// central directory appended at finalize.
	FormatZip
	// FormatLz4 is a sequential container with per-entry lz4 frames.
	FormatLz4
)

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{FormatPlain, FormatTarGz, FormatZip, FormatLz4}
}

// ParseFormat resolves a configuration format name.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimSpace(name) {
	case "plain":
		return FormatPlain, nil
	case "tar.gz":
		return FormatTarGz, nil
	case "zip":
		return FormatZip, nil
	case "lz4":
		return FormatLz4, nil
	default:
		return 0, fmt.Errorf("%w: %q (supported: plain, tar.gz, zip, lz4)", ErrUnknownFormat, name)
	}
}

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatTarGz:
		return "tar.gz"
	case FormatZip:
		return "zip"
	case FormatLz4:
		return "lz4"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Ext returns the output file extension, including the leading dot.
func (f Format) Ext() string {
	switch f {
	case FormatPlain:
		return ".pack"
	case FormatTarGz:
		return ".tar.gz"
	case FormatZip:
		return ".zip"
	case FormatLz4:
		return ".pack.lz4"
	default:
		return ""
	}
}

// OpenWriter creates the output file and returns a writer for the format.
func OpenWriter(f Format, path string) (Writer, error) {
	switch f {
	case FormatPlain:
		return newPlainWriter(path)
	case FormatTarGz:
		return newTarGzWriter(path)
	case FormatZip:
		return newZipWriter(path)
	case FormatLz4:
		return newLz4Writer(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}

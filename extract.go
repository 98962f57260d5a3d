package dirpack

import (
	"archive/tar"
	"archive/zip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Extract unpacks an archive written by this package into dest, creating
// dest if needed. Entry paths that would escape dest are rejected with
// ErrUnsafePath.
func Extract(format Format, archive, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	switch format {
	case FormatPlain:
		return extractSequential(archive, dest, plainMagic, false)
	case FormatLz4:
		return extractSequential(archive, dest, lz4Magic, true)
	case FormatTarGz:
		return extractTarGz(archive, dest)
	case FormatZip:
		return extractZip(archive, dest)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// DetectFormat guesses the format from the archive file name.
func DetectFormat(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".pack.lz4"):
		return FormatLz4, nil
	case strings.HasSuffix(path, ".pack"):
		return FormatPlain, nil
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(path, ".zip"):
		return FormatZip, nil
	default:
		return 0, fmt.Errorf("%w: cannot detect format of %s", ErrUnknownFormat, path)
	}
}

// extractSequential reads the plain or lz4 sequential container.
func extractSequential(archive, dest string, magic [4]byte, compressed bool) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer f.Close()

	if err := checkMagic(f, magic); err != nil {
		return err
	}

	for {
		path, mode, size, err := readEntryHeader(f)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var section io.Reader
		var body io.Reader
		if compressed {
			var compSize uint64
			if err := binary.Read(f, binary.LittleEndian, &compSize); err != nil {
				return fmt.Errorf("%w: frame size for %s: %v", ErrCorruptArchive, path, err)
			}
			section = io.LimitReader(f, int64(compSize))
			body = lz4.NewReader(section)
		} else {
			section = io.LimitReader(f, int64(size))
			body = section
		}

		if err := writeExtracted(dest, path, mode, body); err != nil {
			return err
		}
		// Keep the stream aligned on the next header even when the body
		// reader stops before the section end (frame trailers).
		if _, err := io.Copy(io.Discard, section); err != nil {
			return fmt.Errorf("%w: skip to next entry after %s: %v", ErrCorruptArchive, path, err)
		}
	}
}

func extractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := makeExtractedDir(dest, hdr.Name); err != nil {
				return err
			}
		case tar.TypeReg:
			mode := fs.FileMode(hdr.Mode).Perm()
			if err := writeExtracted(dest, hdr.Name, mode, tr); err != nil {
				return err
			}
		}
	}
}

func extractZip(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			if err := makeExtractedDir(dest, zf.Name); err != nil {
				return err
			}
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("open entry %s: %w", zf.Name, err)
		}
		err = writeExtracted(dest, zf.Name, zf.Mode().Perm(), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin resolves an entry name inside dest, rejecting traversal.
func safeJoin(dest, name string) (string, error) {
	name = strings.TrimSuffix(name, "/")
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(dest, filepath.FromSlash(name)), nil
}

func makeExtractedDir(dest, name string) error {
	path, err := safeJoin(dest, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", name, err)
	}
	return nil
}

// writeExtracted streams one entry body to disk.
func writeExtracted(dest, name string, mode fs.FileMode, body io.Reader) error {
	path, err := safeJoin(dest, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", name, err)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	_, copyErr := io.Copy(out, body)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("extract %s: %w", name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("extract %s: %w", name, closeErr)
	}
	return nil
}

package dirpack

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/flate"
)

// zipWriter writes per-entry deflate-compressed bodies and appends the
// central directory at finalize, allowing single-entry random access later.
type zipWriter struct {
	f  *os.File
	zw *zip.Writer
}

func newZipWriter(path string) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	return &zipWriter{f: f, zw: zw}, nil
}

func (w *zipWriter) WriteEntry(e Entry) error {
	hdr := &zip.FileHeader{
		Name:     e.Path,
		Method:   zip.Deflate,
		Modified: e.ModTime,
	}
	if e.IsDir {
		// Directories are zero-length entries with trailing-slash names.
		hdr.Name += "/"
		hdr.Method = zip.Store
		hdr.SetMode(e.Mode.Perm() | fs.ModeDir)
	} else {
		hdr.SetMode(e.Mode.Perm())
	}

	ew, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", e.Path, err)
	}
	if e.IsDir {
		return nil
	}
	if _, err := io.Copy(ew, e.Body); err != nil {
		return fmt.Errorf("zip write %s: %w", e.Path, err)
	}
	return nil
}

func (w *zipWriter) Finalize() error {
	// Closing the zip writer serializes the buffered central directory.
	zipErr := w.zw.Close()
	closeErr := w.f.Close()
	if zipErr != nil {
		return fmt.Errorf("close zip: %w", zipErr)
	}
	return closeErr
}

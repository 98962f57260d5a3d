package dirpack

import (
	"archive/tar"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// tarGzWriter streams tar entries through a single gzip stream. The
// compressor is stateful across entries, so writes must stay serialized on
// one goroutine.
type tarGzWriter struct {
	f  *os.File
	gz *gzip.Writer
	tw *tar.Writer
}

func newTarGzWriter(path string) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	gz := gzip.NewWriter(f)
	return &tarGzWriter{f: f, gz: gz, tw: tar.NewWriter(gz)}, nil
}

func (w *tarGzWriter) WriteEntry(e Entry) error {
	hdr := &tar.Header{
		Name:    e.Path,
		Mode:    int64(e.Mode.Perm()),
		ModTime: e.ModTime,
	}
	if e.IsDir {
		hdr.Typeflag = tar.TypeDir
		hdr.Name += "/"
	} else {
		hdr.Typeflag = tar.TypeReg
		hdr.Size = e.Size
	}

	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header for %s: %w", e.Path, err)
	}
	if e.IsDir {
		return nil
	}
	if _, err := io.Copy(w.tw, e.Body); err != nil {
		return fmt.Errorf("tar write %s: %w", e.Path, err)
	}
	return nil
}

func (w *tarGzWriter) Finalize() error {
	tarErr := w.tw.Close()
	gzErr := w.gz.Close()
	closeErr := w.f.Close()
	if tarErr != nil {
		return fmt.Errorf("close tar stream: %w", tarErr)
	}
	if gzErr != nil {
		return fmt.Errorf("close gzip stream: %w", gzErr)
	}
	return closeErr
}

package dirpack

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// lz4Magic identifies the sequential lz4 container.
var lz4Magic = [4]byte{'D', 'P', 'L', '4'}

// The lz4 container shares the plain layout, with each entry body stored as
// an independent lz4 frame and the header extended with the compressed
// size:
//
//	uint16  path length
//	bytes   slash-separated path
//	uint32  permission bits
//	uint64  original content size
//	uint64  compressed frame size
//	bytes   lz4 frame
//
// The compressed size is unknown until the frame is written, so the writer
// leaves a placeholder and patches it afterwards by seeking back.
type lz4Writer struct {
	f *os.File
}

func newLz4Writer(path string) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(lz4Magic[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("write magic: %w", err)
	}
	return &lz4Writer{f: f}, nil
}

func (w *lz4Writer) WriteEntry(e Entry) error {
	if e.IsDir {
		return nil
	}

	if err := writeEntryHeader(w.f, e.Path, e.Mode, uint64(e.Size)); err != nil {
		return err
	}

	sizePos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("seek for %s: %w", e.Path, err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint64(0)); err != nil {
		return fmt.Errorf("write size placeholder for %s: %w", e.Path, err)
	}

	zw := lz4.NewWriter(w.f)
	if _, err := io.Copy(zw, e.Body); err != nil {
		zw.Close()
		return fmt.Errorf("compress %s: %w", e.Path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush frame for %s: %w", e.Path, err)
	}

	endPos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("seek for %s: %w", e.Path, err)
	}

	// Patch the compressed frame size now that it is known.
	if _, err := w.f.Seek(sizePos, io.SeekStart); err != nil {
		return fmt.Errorf("seek back for %s: %w", e.Path, err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint64(endPos-sizePos-8)); err != nil {
		return fmt.Errorf("patch size for %s: %w", e.Path, err)
	}
	if _, err := w.f.Seek(endPos, io.SeekStart); err != nil {
		return fmt.Errorf("seek forward for %s: %w", e.Path, err)
	}
	return nil
}

func (w *lz4Writer) Finalize() error {
	return w.f.Close()
}

package dirpack

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// plainMagic identifies the sequential uncompressed container.
var plainMagic = [4]byte{'D', 'P', 'K', '1'}

// The plain container is a magic header followed by a sequence of entries:
//
//	uint16  path length
//	bytes   slash-separated path
//	uint32  permission bits
//	uint64  content size
//	bytes   raw content
//
// All integers are little-endian. Directories are not stored; extraction
// recreates them from entry paths.
type plainWriter struct {
	f  *os.File
	bw *bufio.Writer
}

func newPlainWriter(path string) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if _, err := bw.Write(plainMagic[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("write magic: %w", err)
	}
	return &plainWriter{f: f, bw: bw}, nil
}

func (w *plainWriter) WriteEntry(e Entry) error {
	if e.IsDir {
		return nil
	}
	if err := writeEntryHeader(w.bw, e.Path, e.Mode, uint64(e.Size)); err != nil {
		return err
	}
	n, err := io.Copy(w.bw, e.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	if n != e.Size {
		return fmt.Errorf("write %s: size changed during archiving (want %d, got %d)", e.Path, e.Size, n)
	}
	return nil
}

func (w *plainWriter) Finalize() error {
	flushErr := w.bw.Flush()
	closeErr := w.f.Close()
	if flushErr != nil {
		return fmt.Errorf("flush archive: %w", flushErr)
	}
	return closeErr
}

// writeEntryHeader writes the common sequential-container entry header.
func writeEntryHeader(w io.Writer, path string, mode fs.FileMode, size uint64) error {
	if len(path) > 0xFFFF {
		return fmt.Errorf("path too long: %s", path)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(path))); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	if _, err := io.WriteString(w, path); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(mode.Perm())); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	return nil
}

// readEntryHeader reads the common sequential-container entry header.
// Returns io.EOF cleanly at end of archive.
func readEntryHeader(r io.Reader) (path string, mode fs.FileMode, size uint64, err error) {
	var pathLen uint16
	if err = binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
		if errors.Is(err, io.EOF) {
			return "", 0, 0, io.EOF
		}
		return "", 0, 0, fmt.Errorf("%w: entry header: %v", ErrCorruptArchive, err)
	}
	buf := make([]byte, pathLen)
	if _, err = io.ReadFull(r, buf); err != nil {
		return "", 0, 0, fmt.Errorf("%w: entry path: %v", ErrCorruptArchive, err)
	}
	path = string(buf)
	var m uint32
	if err = binary.Read(r, binary.LittleEndian, &m); err != nil {
		return "", 0, 0, fmt.Errorf("%w: entry mode for %s: %v", ErrCorruptArchive, path, err)
	}
	if err = binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", 0, 0, fmt.Errorf("%w: entry size for %s: %v", ErrCorruptArchive, path, err)
	}
	return path, fs.FileMode(m), size, nil
}

// checkMagic consumes and verifies a container magic header.
func checkMagic(r io.Reader, want [4]byte) error {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return fmt.Errorf("%w: missing magic: %v", ErrCorruptArchive, err)
	}
	if got != want {
		return fmt.Errorf("%w: bad magic %q", ErrCorruptArchive, got[:])
	}
	return nil
}

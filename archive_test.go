package dirpack

import (
	"archive/tar"
	"archive/zip"
	stdgzip "compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, f := range Formats() {
		parsed, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
		assert.NotEmpty(t, f.Ext())
	}

	_, err := ParseFormat("rar")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"x.pack":     FormatPlain,
		"x.pack.lz4": FormatLz4,
		"x.tar.gz":   FormatTarGz,
		"x.tgz":      FormatTarGz,
		"x.zip":      FormatZip,
	}
	for name, want := range tests {
		got, err := DetectFormat(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectFormat("x.rar")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// writeTestArchive streams the given entries into a fresh archive file.
func writeTestArchive(t *testing.T, format Format, entries []Entry) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "test"+format.Ext())
	w, err := OpenWriter(format, out)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.WriteEntry(e))
	}
	require.NoError(t, w.Finalize())
	return out
}

func testEntries() []Entry {
	now := time.Now().Truncate(time.Second)
	files := []struct {
		path, content string
	}{
		{"a.txt", "hello"},
		{"empty.bin", ""},
		{"sub/deep/c.dat", strings.Repeat("dirpack\x00", 4096)},
	}

	entries := []Entry{
		{Path: "sub", IsDir: true, Mode: 0o755, ModTime: now},
		{Path: "sub/deep", IsDir: true, Mode: 0o755, ModTime: now},
	}
	for _, f := range files {
		entries = append(entries, Entry{
			Path:    f.path,
			Size:    int64(len(f.content)),
			Mode:    0o644,
			ModTime: now,
			Body:    strings.NewReader(f.content),
		})
	}
	return entries
}

func wantContents() map[string]string {
	return map[string]string{
		"a.txt":          "hello",
		"empty.bin":      "",
		"sub/deep/c.dat": strings.Repeat("dirpack\x00", 4096),
	}
}

func readExtracted(t *testing.T, dest string) map[string]string {
	t.Helper()

	got := map[string]string{}
	err := filepath.Walk(dest, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dest, path)
		require.NoError(t, relErr)
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		got[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestRoundTripAllFormats(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()

			archive := writeTestArchive(t, format, testEntries())
			dest := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Extract(format, archive, dest))
			assert.Equal(t, wantContents(), readExtracted(t, dest))
		})
	}
}

// TestTarGzStandardReader proves tar.gz output is readable by the standard
// library's gzip and tar readers.
func TestTarGzStandardReader(t *testing.T) {
	t.Parallel()

	archive := writeTestArchive(t, FormatTarGz, testEntries())

	f, err := os.Open(archive)
	require.NoError(t, err)
	defer f.Close()

	gz, err := stdgzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	got := map[string]string{}
	var dirs []string
	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		require.NoError(t, nextErr)
		switch hdr.Typeflag {
		case tar.TypeDir:
			dirs = append(dirs, hdr.Name)
		case tar.TypeReg:
			data, readErr := io.ReadAll(tr)
			require.NoError(t, readErr)
			got[hdr.Name] = string(data)
		}
	}

	assert.Equal(t, wantContents(), got)
	assert.Equal(t, []string{"sub/", "sub/deep/"}, dirs)
}

// TestZipStandardReader proves zip output is readable by archive/zip.
func TestZipStandardReader(t *testing.T) {
	t.Parallel()

	archive := writeTestArchive(t, FormatZip, testEntries())

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()

	got := map[string]string{}
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			assert.True(t, zf.Mode().IsDir())
			continue
		}
		rc, openErr := zf.Open()
		require.NoError(t, openErr)
		data, readErr := io.ReadAll(rc)
		require.NoError(t, readErr)
		require.NoError(t, rc.Close())
		got[zf.Name] = string(data)
	}
	assert.Equal(t, wantContents(), got)
}

func TestEmptyArchiveIsValid(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()

			archive := writeTestArchive(t, format, nil)

			info, err := os.Stat(archive)
			require.NoError(t, err)
			assert.Positive(t, info.Size(), "an empty archive is not a zero-byte file")

			dest := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Extract(format, archive, dest))
			assert.Empty(t, readExtracted(t, dest))
		})
	}
}

func TestSequentialReaderRejectsBadMagic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bogus.pack")
	require.NoError(t, os.WriteFile(path, []byte("NOPE"), 0o644))

	err := Extract(FormatPlain, path, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestExtractRejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	archive := writeTestArchive(t, FormatPlain, []Entry{{
		Path: "../escape.txt",
		Size: 4,
		Mode: 0o644,
		Body: strings.NewReader("evil"),
	}})

	err := Extract(FormatPlain, archive, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, ErrUnsafePath)
}

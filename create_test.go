package dirpack

import (
	"archive/tar"
	stdgzip "compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTarGzScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{
		"a.txt": "hello",
		"b.tmp": "scratch",
	})

	cfg := &Config{Format: "tar.gz", Ignore: []string{"*.tmp"}}
	out, err := Create(context.Background(), cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, filepath.Base(dir)+".tar.gz"), out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	gz, err := stdgzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	var content string
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		require.NoError(t, nextErr)
		names = append(names, hdr.Name)
		if hdr.Name == "a.txt" {
			data, readErr := io.ReadAll(tr)
			require.NoError(t, readErr)
			content = string(data)
		}
	}

	assert.Equal(t, []string{"a.txt"}, names)
	assert.Equal(t, "hello", content)
}

func TestCreateRoundTripWithIgnoreRules(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			createTestFiles(t, dir, map[string]string{
				"keep.txt":           "keep",
				"notes/important.md": "notes",
				"a.log":              "log",
				"important.log":      "keep me",
				"target/debug.bin":   "junk",
			})

			cfg := &Config{
				Format:     format.String(),
				OutputName: "bundle",
				Ignore:     []string{"*.log", "!important.log", "target/"},
			}
			out, err := Create(context.Background(), cfg, dir)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "bundle"+format.Ext()), out)

			dest := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Extract(format, out, dest))
			assert.Equal(t, map[string]string{
				"keep.txt":           "keep",
				"notes/important.md": "notes",
				"important.log":      "keep me",
			}, readExtracted(t, dest))
		})
	}
}

func TestCreateEmptyDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &Config{Format: "zip"}
	out, err := Create(context.Background(), cfg, dir)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestCreateProgressMonotonic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{
		"a.txt":     "aaaa",
		"b.txt":     "bb",
		"sub/c.txt": "cccccc",
	})

	var events []ProgressEvent
	cfg := &Config{Format: "plain"}
	_, err := Create(context.Background(), cfg, dir,
		CreateWithProgress(func(ev ProgressEvent) { events = append(events, ev) }))
	require.NoError(t, err)

	require.Len(t, events, 4) // 3 files + 1 directory
	var prev ProgressEvent
	for _, ev := range events {
		assert.Equal(t, prev.EntriesWritten+1, ev.EntriesWritten)
		assert.GreaterOrEqual(t, ev.BytesWritten, prev.BytesWritten)
		assert.NotEmpty(t, ev.Path)
		prev = ev
	}
	assert.EqualValues(t, 12, prev.BytesWritten)
}

func TestCreateCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{"a.txt": "hello"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{Format: "tar.gz"}
	_, err := Create(ctx, cfg, dir)
	assert.ErrorIs(t, err, context.Canceled)

	// The partial output must not be left behind.
	_, statErr := os.Stat(filepath.Join(dir, filepath.Base(dir)+".tar.gz"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCreateSkipsOwnOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{"a.txt": "hello"})

	cfg := &Config{Format: "zip", OutputName: "self"}
	_, err := Create(context.Background(), cfg, dir)
	require.NoError(t, err)

	// Second run enumerates the first archive but must not archive the
	// file it is currently writing.
	out, err := Create(context.Background(), cfg, dir)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Extract(FormatZip, out, dest))
	assert.Equal(t, map[string]string{"a.txt": "hello"}, readExtracted(t, dest))
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()

	_, err := Create(context.Background(), nil, t.TempDir())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Create(context.Background(), &Config{Format: "rar"}, t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Create(context.Background(), &Config{Format: "zip", Ignore: []string{"[bad"}}, t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCreateCustomEnumerator(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{
		"wanted.txt":  "yes",
		"skipped.txt": "no",
	})

	cfg := &Config{Format: "plain"}
	out, err := Create(context.Background(), cfg, dir, CreateWithEnumerator(func(root string) ([]Candidate, error) {
		info, statErr := os.Stat(filepath.Join(root, "wanted.txt"))
		if statErr != nil {
			return nil, statErr
		}
		return []Candidate{{Rel: "wanted.txt", Size: info.Size(), Mode: 0o644, ModTime: info.ModTime()}}, nil
	}))
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Extract(FormatPlain, out, dest))
	assert.Equal(t, map[string]string{"wanted.txt": "yes"}, readExtracted(t, dest))
}

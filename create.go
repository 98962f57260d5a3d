package dirpack

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Create archives root according to cfg and returns the output path.
//
// The pipeline enumerates the tree, filters candidates through the
// configured ignore rules, and streams survivors into the chosen format one
// entry at a time; no file is held fully in memory. The output file is
// placed inside root, named after cfg's output name (default: the base name
// of root) plus the format extension, and is itself never archived.
//
// On any write failure the writer is finalized best-effort, the partial
// output file is removed, and the error is returned with the offending
// path. The context is checked between entries; cancellation also removes
// the partial output.
func Create(ctx context.Context, cfg *Config, root string, opts ...CreateOption) (string, error) {
	c := createConfig{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.enumerate == nil {
		c.enumerate = Enumerate
	}

	if cfg == nil {
		return "", fmt.Errorf("%w: nil config", ErrConfig)
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return "", err
	}

	a := &archiver{cfg: c, logger: c.logger}

	ig, err := NewIgnore(cfg.Rules())
	if err != nil {
		return "", err
	}

	outName := cfg.ResolveOutputName(root) + format.Ext()
	outPath := filepath.Join(root, outName)
	a.log().Info("creating archive", "dir", root, "format", format.String(), "output", outPath)

	candidates, err := c.enumerate(root)
	if err != nil {
		return "", fmt.Errorf("enumerate %s: %w", root, err)
	}
	included := ig.FilterFiles(candidates)
	a.log().Debug("candidates filtered", "total", len(candidates), "included", len(included))

	w, err := OpenWriter(format, outPath)
	if err != nil {
		return "", err
	}

	if err := a.writeAll(ctx, w, root, outName, included); err != nil {
		// Best-effort finalize so the container state is flushed, then
		// remove the partial output rather than leaving a broken archive.
		_ = w.Finalize()
		_ = os.Remove(outPath)
		return "", err
	}

	if err := w.Finalize(); err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("finalize %s: %w", outPath, err)
	}

	a.log().Info("archive complete", "output", outPath, "entries", len(included))
	return outPath, nil
}

// archiver holds state for one creation run.
type archiver struct {
	cfg            createConfig
	logger         *slog.Logger
	entriesWritten uint64
	bytesWritten   uint64
}

// log returns the logger, falling back to a discard logger if nil.
func (a *archiver) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// reportProgress sends a progress event if a callback is configured.
func (a *archiver) reportProgress(path string) {
	if a.cfg.progress == nil {
		return
	}
	a.cfg.progress(ProgressEvent{
		EntriesWritten: a.entriesWritten,
		BytesWritten:   a.bytesWritten,
		Path:           path,
	})
}

// writeAll streams the included candidates into the writer in order.
// All WriteEntry calls stay on this goroutine: the tar.gz compressor is
// stateful across entries.
func (a *archiver) writeAll(ctx context.Context, w Writer, root, outName string, included []Candidate) error {
	for _, cand := range included {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cand.Rel == outName {
			continue // never archive the in-progress output file
		}

		if err := a.writeOne(w, root, cand); err != nil {
			return err
		}

		a.entriesWritten++
		if !cand.IsDir {
			a.bytesWritten += uint64(cand.Size)
		}
		a.reportProgress(cand.Rel)
	}
	return nil
}

// writeOne builds the archive entry for one candidate and writes it,
// streaming file content from disk.
func (a *archiver) writeOne(w Writer, root string, cand Candidate) error {
	entry := Entry{
		Path:    cand.Rel,
		Size:    cand.Size,
		Mode:    cand.Mode,
		IsDir:   cand.IsDir,
		ModTime: cand.ModTime,
	}

	if cand.IsDir {
		return w.WriteEntry(entry)
	}

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(cand.Rel)))
	if err != nil {
		return fmt.Errorf("open %s: %w", cand.Rel, err)
	}
	defer f.Close()

	entry.Body = f
	return w.WriteEntry(entry)
}

package dirpack

import (
	"io/fs"
	"path/filepath"
)

// Enumerator produces every file and directory under root as root-relative
// candidates. [Create] uses [Enumerate] unless the host supplies its own
// implementation via [CreateWithEnumerator].
type Enumerator func(root string) ([]Candidate, error)

// Enumerate walks root recursively and returns every file and directory
// beneath it, in lexical order, with slash-separated root-relative paths.
//
// Entries that cannot be read or statted are skipped silently rather than
// aborting the walk, so one unreadable file does not lose the whole
// archive. Only a failure on root itself is an error. Symbolic links are
// not followed.
func Enumerate(root string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, 256)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil // unreadable entry, skip
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		c := Candidate{
			Rel:     filepath.ToSlash(rel),
			IsDir:   d.IsDir(),
			Mode:    info.Mode().Perm(),
			ModTime: info.ModTime(),
		}
		if !c.IsDir {
			c.Size = info.Size()
		}
		candidates = append(candidates, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

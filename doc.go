// Package dirpack archives a directory tree into one of several container
// formats, excluding paths that match gitignore-style ignore rules.
//
// Selection and packing are driven by a [Config], typically loaded from a
// dirpack.toml file. The pipeline is: enumerate the tree, filter candidates
// through the compiled ignore rules, then stream the survivors into the
// configured archive format.
//
// # Quick Start
//
// Archive the current directory as a gzip-compressed tar stream:
//
//	cfg := dirpack.DefaultConfig()
//	cfg.Format = "tar.gz"
//	out, err := dirpack.Create(ctx, cfg, ".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println("wrote", out)
//
// # Ignore Rules
//
// Rules follow gitignore semantics: `*`, `?` and `[...]` globs that never
// cross a path separator, `!` negation, trailing `/` for directory-only
// rules, and anchoring for any rule containing a non-trailing slash. Rules
// are evaluated in order and the last match wins; excluding a directory
// excludes its entire subtree.
//
// # Formats
//
// Four formats are supported: a sequential uncompressed container ("plain"),
// a gzip-compressed tar stream ("tar.gz"), a zip archive with per-entry
// deflate compression ("zip"), and a sequential container with per-entry
// lz4 frames ("lz4"). All of them share the [Writer] interface.
//
// # Progress
//
// Archive creation accepts a context for cancellation and reports per-entry
// progress through [CreateWithProgress].
package dirpack

package dirpack

import (
	"io/fs"
	"strings"
	"time"
)

// Ignore evaluates gitignore-style rules against root-relative paths.
//
// Rules are evaluated in their original order and the last matching rule
// wins: a plain match excludes the path, a negated match re-includes it,
// and a path nothing matches stays included. Excluding a directory excludes
// its entire subtree; a negation cannot re-include a path whose parent
// directory is excluded. Matching is case-sensitive.
type Ignore struct {
	patterns []*pattern
}

// Candidate is one enumerated path, relative to the scan root.
type Candidate struct {
	// Rel is the slash-separated root-relative path.
	Rel string
	// IsDir reports whether the path denotes a directory.
	IsDir bool
	// Size is the file size in bytes, zero for directories.
	Size int64
	// Mode holds the permission bits recorded in the archive.
	Mode fs.FileMode
	// ModTime is the file modification time recorded by formats that
	// store one.
	ModTime time.Time
}

// NewIgnore compiles ordered rule lines into an engine. Blank lines and
// "#" comment lines are skipped; leading "!" negates; a trailing "/"
// restricts the rule to directories.
func NewIgnore(rules []string) (*Ignore, error) {
	ig := &Ignore{patterns: make([]*pattern, 0, len(rules))}
	for _, rule := range rules {
		line := strings.TrimRight(rule, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := compilePattern(line)
		if err != nil {
			return nil, err
		}
		ig.patterns = append(ig.patterns, p)
	}
	return ig, nil
}

// Match reports whether the path should be excluded from the archive.
//
// Every ancestor directory is evaluated first: once a parent directory is
// excluded the whole subtree is excluded and later negations on descendants
// have no effect, mirroring gitignore.
func (ig *Ignore) Match(rel string, isDir bool) bool {
	if len(ig.patterns) == 0 || rel == "" {
		return false
	}

	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' && ig.decide(rel[:i], true) {
			return true
		}
	}
	return ig.decide(rel, isDir)
}

// decide evaluates the ordered rule list for one path, last match wins.
func (ig *Ignore) decide(rel string, isDir bool) bool {
	excluded := false
	for _, p := range ig.patterns {
		if p.matches(rel, isDir) {
			excluded = !p.negated
		}
	}
	return excluded
}

// FilterFiles returns the candidates that survive the rules, preserving
// input order.
func (ig *Ignore) FilterFiles(candidates []Candidate) []Candidate {
	if len(ig.patterns) == 0 {
		return candidates
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !ig.Match(c.Rel, c.IsDir) {
			kept = append(kept, c)
		}
	}
	return kept
}

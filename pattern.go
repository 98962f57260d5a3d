package dirpack

import (
	"fmt"
	"strings"
)

// pattern is the compiled representation of one ignore rule.
type pattern struct {
	// raw is the original rule text, kept for error reporting.
	raw string
	// negated means the rule re-includes matching paths ("!prefix").
	negated bool
	// dirOnly means the rule only matches directories (trailing "/").
	dirOnly bool
	// anchored means the rule matches relative to the scan root only.
	anchored bool
	// segments are the slash-separated glob segments of the rule body.
	segments []string
}

// compilePattern compiles one non-comment, non-blank rule line.
//
// The caller is expected to have stripped trailing whitespace and dropped
// blank and "#" comment lines already.
func compilePattern(raw string) (*pattern, error) {
	p := &pattern{raw: raw}
	body := raw

	if strings.HasPrefix(body, "!") {
		p.negated = true
		body = body[1:]
	}
	if strings.HasSuffix(body, "/") {
		p.dirOnly = true
		body = body[:len(body)-1]
	}

	// A slash anywhere except the trailing one anchors the rule to the
	// root. A leading slash is anchoring only and not part of the body.
	if strings.Contains(body, "/") {
		p.anchored = true
	}
	body = strings.Trim(body, "/")
	if body == "" {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidPattern, raw)
	}

	if err := validateGlob(body); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, raw, err)
	}

	p.segments = strings.Split(body, "/")
	return p, nil
}

// matches reports whether the rule matches the slash-separated root-relative
// path. Directory-only rules never match files directly; subtree exclusion
// for directories is handled by the engine via ancestor checks.
func (p *pattern) matches(rel string, isDir bool) bool {
	if rel == "" {
		return false
	}
	if p.dirOnly && !isDir {
		return false
	}

	if p.anchored {
		return matchSegments(p.segments, strings.Split(rel, "/"))
	}

	// Slash-free rules match the final path component at any depth.
	return matchSegment(p.segments[0], pathBase(rel))
}

// matchSegments matches glob segments against path segments, consuming both
// completely. A "**" segment matches zero or more path segments.
func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		for skip := 0; skip <= len(segs); skip++ {
			if matchSegments(pat[1:], segs[skip:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if !matchSegment(pat[0], segs[0]) {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}

// matchSegment matches one glob segment against one path segment using
// iterative "*" backtracking. "*" and "?" never cross a separator because
// matching is per-segment.
func matchSegment(pat, s string) bool {
	pIdx, sIdx := 0, 0
	starPat, starInput := -1, 0

	for sIdx < len(s) {
		if pIdx < len(pat) {
			switch pat[pIdx] {
			case '*':
				// Remember star position, then try matching the rest
				// greedily from the current input index.
				starPat = pIdx
				starInput = sIdx
				pIdx++
				continue
			case '?':
				pIdx++
				sIdx++
				continue
			case '[':
				if end := findClassEnd(pat, pIdx); end >= 0 {
					if matchClass(pat[pIdx+1:end], s[sIdx]) {
						pIdx = end + 1
						sIdx++
						continue
					}
					break // class did not match, fall through to backtrack
				}
				// Unterminated class is rejected at compile time; treat a
				// stray '[' as a literal for safety.
				if pat[pIdx] == s[sIdx] {
					pIdx++
					sIdx++
					continue
				}
			default:
				if pat[pIdx] == s[sIdx] {
					pIdx++
					sIdx++
					continue
				}
			}
		}

		if starPat < 0 {
			return false
		}

		// Mismatch after a star: let the star consume one more byte and
		// retry from the token after it.
		starInput++
		pIdx = starPat + 1
		sIdx = starInput
	}

	for pIdx < len(pat) && pat[pIdx] == '*' {
		pIdx++
	}
	return pIdx == len(pat)
}

// matchClass matches one byte against a character class body (the text
// between "[" and "]"). A leading "!" or "^" negates the class; "a-z"
// ranges are supported; a leading "]" is literal.
func matchClass(body string, c byte) bool {
	negated := false
	if len(body) > 0 && (body[0] == '!' || body[0] == '^') {
		negated = true
		body = body[1:]
	}

	matched := false
	for i := 0; i < len(body); i++ {
		if i+2 < len(body) && body[i+1] == '-' {
			if body[i] <= c && c <= body[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if body[i] == c {
			matched = true
		}
	}
	return matched != negated
}

// validateGlob rejects glob syntax that cannot be tokenized, currently an
// unterminated character class.
func validateGlob(body string) error {
	for i := 0; i < len(body); i++ {
		if body[i] == '[' {
			end := findClassEnd(body, i)
			if end < 0 {
				return fmt.Errorf("unterminated character class at offset %d", i)
			}
			i = end
		}
	}
	return nil
}

// findClassEnd locates the closing bracket of a character class starting at
// pat[start] == '['. Returns -1 when the class is unterminated. A "]"
// immediately after the opening bracket (or after "!"/"^") is literal.
func findClassEnd(pat string, start int) int {
	idx := start + 1
	if idx < len(pat) && (pat[idx] == '!' || pat[idx] == '^') {
		idx++
	}
	if idx < len(pat) && pat[idx] == ']' {
		idx++
	}
	for ; idx < len(pat); idx++ {
		if pat[idx] == ']' {
			return idx
		}
	}
	return -1
}

// pathBase returns the final slash-separated path component.
func pathBase(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

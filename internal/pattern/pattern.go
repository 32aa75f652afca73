// Package pattern implements include/exclude glob filtering for file paths.
//
// Patterns use doublestar syntax ("**/node_modules/**", "*.rs"). Matching is
// tried against the full slash-normalized path and against every trailing
// component suffix, so a relative pattern like "node_modules/**" still
// excludes "/home/user/project/node_modules/x.js".
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	semerr "github.com/semidx/semidx/internal/errors"
)

// Filter decides whether paths are included based on glob pattern sets.
// A Filter is immutable after construction and safe for concurrent use.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter compiles include and exclude patterns into a Filter.
// Every pattern is validated up front; a single malformed pattern fails
// construction with a validation error naming the pattern.
func NewFilter(include, exclude []string) (*Filter, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, semerr.InvalidPatterns("invalid include pattern: "+p, nil).
				WithDetail("pattern", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, semerr.InvalidPatterns("invalid exclude pattern: "+p, nil).
				WithDetail("pattern", p)
		}
	}

	return &Filter{
		include: append([]string(nil), include...),
		exclude: append([]string(nil), exclude...),
	}, nil
}

// ShouldInclude reports whether the path passes the filter.
// Exclude patterns win over include patterns. An empty include set means
// everything is included (subject to excludes).
func (f *Filter) ShouldInclude(path string) bool {
	norm := filepathToSlash(path)

	for _, p := range f.exclude {
		if matchPattern(p, norm) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, p := range f.include {
		if matchPattern(p, norm) {
			return true
		}
	}
	return false
}

// HasPatterns reports whether the filter carries any patterns at all.
func (f *Filter) HasPatterns() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// matchPattern matches a glob pattern against the path and against every
// trailing component suffix of the path.
func matchPattern(pat, path string) bool {
	if ok, err := doublestar.Match(pat, path); err == nil && ok {
		return true
	}

	// Relative patterns should match anywhere in an absolute path.
	// "node_modules/**" matches "/a/b/node_modules/c" via the
	// "node_modules/c" suffix.
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.Split(trimmed, "/")
	for i := 1; i < len(parts); i++ {
		suffix := strings.Join(parts[i:], "/")
		if ok, err := doublestar.Match(pat, suffix); err == nil && ok {
			return true
		}
	}
	return false
}

// filepathToSlash normalizes OS-specific separators to forward slashes.
func filepathToSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

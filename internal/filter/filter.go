// Package filter decides which source paths stay out of a build.
package filter

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludedExtensions are file extensions never shipped from a source tree.
var DefaultExcludedExtensions = []string{".pyc", ".pyo", ".qmlc", ".jsc", ".chm"}

// Options configures a Filter. Paths may be absolute or relative to Base.
type Options struct {
	Base               string
	AlwaysExclude      []string
	Staging            string
	ExcludedExtensions []string
	ExcludeGlobs       []string
}

// Filter answers IsIgnorable for paths relative to its base directory.
type Filter struct {
	base       string
	always     map[string]struct{}
	staging    []string
	extensions map[string]struct{}
	globs      []string
}

// New prepares a Filter. Malformed globs are rejected.
func New(opts Options) (*Filter, error) {
	base, err := filepath.Abs(opts.Base)
	if err != nil {
		return nil, fmt.Errorf("resolve filter base %s: %w", opts.Base, err)
	}

	f := &Filter{
		base:       base,
		always:     make(map[string]struct{}),
		extensions: make(map[string]struct{}),
	}

	for _, p := range opts.AlwaysExclude {
		if rel, ok := f.relative(p); ok {
			f.always[rel] = struct{}{}
		}
	}
	if opts.Staging != "" {
		if rel, ok := f.relative(opts.Staging); ok {
			f.staging = strings.Split(rel, "/")
		}
	}

	exts := opts.ExcludedExtensions
	if exts == nil {
		exts = DefaultExcludedExtensions
	}
	for _, ext := range exts {
		f.extensions[strings.ToLower(ext)] = struct{}{}
	}

	for _, g := range opts.ExcludeGlobs {
		pattern := filepath.ToSlash(g)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", g)
		}
		f.globs = append(f.globs, pattern)
	}

	return f, nil
}

// Base returns the absolute directory paths are resolved against.
func (f *Filter) Base() string {
	return f.base
}

// relative maps p to a slash-separated path below the base. Paths outside the
// base, and the base itself, are reported as not ok.
func (f *Filter) relative(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(f.base, p)
	}
	rel, err := filepath.Rel(f.base, filepath.Clean(abs))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// IsIgnorable reports whether rel, relative to the base, must be left out.
// Segments are checked left to right and the first hit wins, so anything
// below an ignorable directory is ignorable too.
func (f *Filter) IsIgnorable(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || rel == "" {
		return false
	}

	segments := strings.Split(rel, "/")
	accumulated := ""
	for i, segment := range segments {
		if accumulated == "" {
			accumulated = segment
		} else {
			accumulated += "/" + segment
		}

		if strings.HasPrefix(segment, ".") {
			return true
		}
		if _, ok := f.always[accumulated]; ok {
			return true
		}
		if f.coversStaging(segments[:i+1]) {
			return true
		}
		if isTestName(segment) && f.isDir(accumulated) {
			return true
		}
		if f.hasExcludedExtension(segment) && f.isFile(accumulated) {
			return true
		}
		if f.matchesGlob(accumulated) {
			return true
		}
	}
	return false
}

// coversStaging reports whether walked equals the staging path or is one of
// its ancestors, compared segment by segment.
func (f *Filter) coversStaging(walked []string) bool {
	if len(f.staging) == 0 || len(walked) > len(f.staging) {
		return false
	}
	for i, segment := range walked {
		if segment != f.staging[i] {
			return false
		}
	}
	return true
}

func isTestName(segment string) bool {
	lower := strings.ToLower(segment)
	return lower == "test" || lower == "tests"
}

func (f *Filter) hasExcludedExtension(segment string) bool {
	_, ok := f.extensions[strings.ToLower(path.Ext(segment))]
	return ok
}

func (f *Filter) matchesGlob(rel string) bool {
	for _, pattern := range f.globs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (f *Filter) isDir(rel string) bool {
	info, err := os.Stat(filepath.Join(f.base, filepath.FromSlash(rel)))
	return err == nil && info.IsDir()
}

func (f *Filter) isFile(rel string) bool {
	info, err := os.Stat(filepath.Join(f.base, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

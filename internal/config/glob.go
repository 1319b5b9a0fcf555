package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandGlobs expands file paths, directories and glob patterns into a sorted
// unique list of regular files.
//
// A "**" path segment matches zero or more directories. A directory given
// literally expands to the regular files directly inside it. Patterns that
// match nothing contribute nothing; callers decide whether an empty result
// is an error.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no file patterns provided")
	}

	files := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		var matches []string
		var err error

		switch {
		case strings.Contains(pattern, "**"):
			matches, err = globRecursive(pattern)
		case hasGlobMeta(pattern):
			matches, err = filepath.Glob(pattern)
		default:
			matches, err = expandLiteral(pattern)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if isRegularFile(match) {
				add(match)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// expandLiteral resolves a path without glob metacharacters.
func expandLiteral(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Missing paths behave like globs that match nothing.
		return nil, nil
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, nil
	}
	matches := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			matches = append(matches, filepath.Join(path, entry.Name()))
		}
	}
	return matches, nil
}

// StaticRoot returns the leading directory of pattern that contains no glob
// metacharacters. It is "." for relative patterns that start with a glob.
func StaticRoot(pattern string) string {
	clean := filepath.ToSlash(filepath.Clean(pattern))
	segments := strings.Split(clean, "/")

	n := 0
	for n < len(segments)-1 && !hasGlobMeta(segments[n]) {
		n++
	}
	if !hasGlobMeta(segments[n]) {
		n = len(segments)
	}

	root := strings.Join(segments[:n], "/")
	switch {
	case root == "" && strings.HasPrefix(clean, "/"):
		root = "/"
	case root == "":
		root = "."
	}
	return filepath.FromSlash(root)
}

// Match reports whether path is selected by pattern. A pattern without glob
// metacharacters selects itself and, if it names a directory, the files
// directly inside it.
func Match(pattern, path string) bool {
	pattern = filepath.Clean(pattern)
	path = filepath.Clean(path)

	if !hasGlobMeta(pattern) {
		return path == pattern || filepath.Dir(path) == pattern
	}

	return matchSegments(
		strings.Split(filepath.ToSlash(pattern), "/"),
		strings.Split(filepath.ToSlash(path), "/"),
	)
}

// globRecursive walks the static root of pattern and matches every file
// below it segment by segment.
func globRecursive(pattern string) ([]string, error) {
	segments := strings.Split(filepath.ToSlash(filepath.Clean(pattern)), "/")

	// Validate every non-recursive segment up front.
	for _, seg := range segments {
		if seg == "**" {
			continue
		}
		if _, err := filepath.Match(seg, ""); err != nil {
			return nil, err
		}
	}

	root := StaticRoot(pattern)

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, the reader reports files.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if Match(pattern, path) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// matchSegments reports whether path segments match pattern segments, where
// a "**" pattern segment consumes zero or more path segments.
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	if pattern[0] == "**" {
		for i := 0; i <= len(path); i++ {
			if matchSegments(pattern[1:], path[i:]) {
				return true
			}
		}
		return false
	}

	if len(path) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

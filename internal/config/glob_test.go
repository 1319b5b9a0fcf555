package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte("test"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.log", "b.log", "c.txt")

	files, err := ExpandGlobs([]string{filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	files, err = ExpandGlobs([]string{filepath.Join(dir, "a.log"), filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected duplicates to collapse to 2 files, got %d", len(files))
	}
}

func TestExpandGlobsRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "top.log", "nested/one.log", "nested/deeper/two.log", "nested/skip.txt")

	files, err := ExpandGlobs([]string{filepath.Join(dir, "**", "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "nested", "deeper", "two.log"),
		filepath.Join(dir, "nested", "one.log"),
		filepath.Join(dir, "top.log"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestExpandGlobsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.log", "sub/b.log")

	files, err := ExpandGlobs([]string{dir})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(dir, "a.log") {
		t.Fatalf("ExpandGlobs(dir) = %v, want only the direct file", files)
	}
}

func TestExpandGlobsNoMatch(t *testing.T) {
	dir := t.TempDir()

	files, err := ExpandGlobs([]string{filepath.Join(dir, "*.missing"), filepath.Join(dir, "absent.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestExpandGlobsErrors(t *testing.T) {
	if _, err := ExpandGlobs(nil); err == nil {
		t.Error("expected error for empty pattern list")
	}
	if _, err := ExpandGlobs([]string{"[bad"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestMatchSegments(t *testing.T) {
	tests := []struct {
		pattern []string
		path    []string
		want    bool
	}{
		{[]string{"**", "*.log"}, []string{"a.log"}, true},
		{[]string{"**", "*.log"}, []string{"x", "y", "a.log"}, true},
		{[]string{"**", "*.log"}, []string{"x", "a.txt"}, false},
		{[]string{"x", "**"}, []string{"x"}, true},
		{[]string{"*"}, []string{"x", "y"}, false},
	}

	for _, tt := range tests {
		if got := matchSegments(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchSegments(%v, %v) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestStaticRoot(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"logs/**/*.log", "logs"},
		{"logs/app/*.log", "logs/app"},
		{"*.log", "."},
		{"**/*.log", "."},
		{"/var/log/**", "/var/log"},
		{"/*/app.log", "/"},
		{"logs/app.log", "logs/app.log"},
	}

	for _, tt := range tests {
		if got := StaticRoot(filepath.FromSlash(tt.pattern)); got != filepath.FromSlash(tt.want) {
			t.Errorf("StaticRoot(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"logs/app.log", "logs/app.log", true},
		{"./logs/app.log", "logs/app.log", true},
		{"logs/app.log", "logs/other.log", false},
		{"logs", "logs/app.log", true},
		{"logs", "logs/sub/app.log", false},
		{"logs/*.log", "logs/b.log", true},
		{"logs/*.log", "logs/b.txt", false},
		{"logs/**/*.log", "logs/a/b/c.log", true},
		{"logs/**/*.log", "logs/c.log", true},
		{"logs/**/*.log", "other/c.log", false},
	}

	for _, tt := range tests {
		got := Match(filepath.FromSlash(tt.pattern), filepath.FromSlash(tt.path))
		if got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

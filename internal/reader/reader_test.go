package reader

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testReader() *Reader {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeTempFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip Write() error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.log", []byte("first\n\n  third  \r\nlast without newline"))
	b := writeTempFile(t, dir, "b.log", []byte("from b\n"))

	lines, err := testReader().ReadFiles(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}

	want := []string{"first", "", "  third  ", "last without newline", "from b"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("ReadFiles() = %q, want %q", lines, want)
	}
}

func TestReadFilesGzip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"syslog.1.gz", "syslog.2.gzip"} {
		path := writeTempFile(t, dir, name, gzipBytes(t, "one\ntwo\n"))

		lines, err := testReader().ReadFiles(context.Background(), []string{path})
		if err != nil {
			t.Fatalf("ReadFiles(%s) error = %v", name, err)
		}
		if !reflect.DeepEqual(lines, []string{"one", "two"}) {
			t.Errorf("ReadFiles(%s) = %q", name, lines)
		}
	}

	// A zero-byte archive is an empty file, not a broken one.
	empty := writeTempFile(t, dir, "syslog.3.gz", nil)
	plain := writeTempFile(t, dir, "app.log", []byte("after\n"))

	lines, err := testReader().ReadFiles(context.Background(), []string{empty, plain})
	if err != nil {
		t.Fatalf("ReadFiles(empty .gz) error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"after"}) {
		t.Errorf("ReadFiles(empty .gz) = %q", lines)
	}

	_, err = testReader().ReadFiles(context.Background(), []string{empty})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput for a lone empty archive, got %v", err)
	}
}

func TestReadFilesLineEndings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"lf", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"cr only", "a\rb\rc", []string{"a", "b", "c"}},
		{"mixed", "a\r\nb\rc\nd", []string{"a", "b", "c", "d"}},
		{"blank lines", "a\r\rb\n\n", []string{"a", "", "b", ""}},
		{"trailing cr", "a\r", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, t.TempDir(), "endings.log", []byte(tt.content))

			lines, err := testReader().ReadFiles(context.Background(), []string{path})
			if err != nil {
				t.Fatalf("ReadFiles() error = %v", err)
			}
			if !reflect.DeepEqual(lines, tt.want) {
				t.Errorf("ReadFiles() = %q, want %q", lines, tt.want)
			}
		})
	}
}

func TestReadFilesCROnlyGzip(t *testing.T) {
	path := writeTempFile(t, t.TempDir(), "mac.log.gz", gzipBytes(t, "one\rtwo\r"))

	lines, err := testReader().ReadFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"one", "two"}) {
		t.Errorf("ReadFiles() = %q", lines)
	}
}

func TestReadFilesBadGzip(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "broken.gz", []byte("not compressed at all"))

	_, err := testReader().ReadFiles(context.Background(), []string{path})
	if !errors.Is(err, ErrBadGzip) {
		t.Fatalf("expected ErrBadGzip, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken.gz is not a valid gzip archive") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestReadFilesBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "blob.bin", []byte{'o', 'k', '\n', 0xff, 0xfe, 0xfd, '\n'})

	_, err := testReader().ReadFiles(context.Background(), []string{path})
	if !errors.Is(err, ErrNotText) {
		t.Fatalf("expected ErrNotText, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Cannot read log events from file ") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestReadFilesSkipsDirectoriesAndMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.log", []byte("x\n"))

	lines, err := testReader().ReadFiles(context.Background(), []string{dir, filepath.Join(dir, "gone.log"), path})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"x"}) {
		t.Errorf("ReadFiles() = %q", lines)
	}
}

func TestReadFilesNoReadableFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := testReader().ReadFiles(context.Background(), []string{dir})
	if !errors.Is(err, ErrNoReadableFiles) {
		t.Fatalf("expected ErrNoReadableFiles, got %v", err)
	}

	_, err = testReader().ReadFiles(context.Background(), nil)
	if !errors.Is(err, ErrNoReadableFiles) {
		t.Fatalf("expected ErrNoReadableFiles for no paths, got %v", err)
	}
}

func TestReadFilesAllEmpty(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.log", nil)
	b := writeTempFile(t, dir, "b.log.gz", gzipBytes(t, ""))

	_, err := testReader().ReadFiles(context.Background(), []string{a, b})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if err.Error() != "All files are empty" {
		t.Errorf("unexpected message %q", err)
	}
}

func TestReadFilesUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	dir := t.TempDir()
	locked := writeTempFile(t, dir, "locked.log", []byte("secret\n"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}
	open := writeTempFile(t, dir, "open.log", []byte("visible\n"))

	var logs bytes.Buffer
	r := New(slog.New(slog.NewTextHandler(&logs, nil)))
	lines, err := r.ReadFiles(context.Background(), []string{locked, open})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"visible"}) {
		t.Errorf("ReadFiles() = %q", lines)
	}
	if !strings.Contains(logs.String(), "locked.log") {
		t.Errorf("expected a warning naming the skipped file, got %q", logs.String())
	}
}

func TestReadFilesStdin(t *testing.T) {
	r := testReader()
	r.WithStdin(strings.NewReader("piped one\npiped two\n"))

	lines, err := r.ReadFiles(context.Background(), []string{StdinPath})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"piped one", "piped two"}) {
		t.Errorf("ReadFiles() = %q", lines)
	}
}

func TestReadFilesLongLine(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 1<<20)
	path := writeTempFile(t, dir, "long.log", []byte(long+"\nshort\n"))

	lines, err := testReader().ReadFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if len(lines) != 2 || len(lines[0]) != len(long) {
		t.Errorf("unexpected lines: count=%d", len(lines))
	}
}

func TestReadFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.log", []byte("x\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testReader().ReadFiles(ctx, []string{path})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// Package reader loads log lines from plain and gzip-compressed files.
package reader

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode/utf8"
)

// These messages are shown to users verbatim.
var (
	ErrNoReadableFiles = errors.New("No readable files detected. To read multiple files, use glob patterns: 'dir/*' or 'dir/**/*.log'")
	ErrEmptyInput      = errors.New("All files are empty")
	ErrNotText         = errors.New("Only plain and rotated (.gz) logs are currently supported.")
	ErrBadGzip         = errors.New("not a valid gzip archive.")
)

// StdinPath reads standard input instead of a file.
const StdinPath = "-"

// Reader reads lines from a list of files in order.
type Reader struct {
	logger *slog.Logger
	stdin  io.Reader
}

// New creates a Reader. Skipped files are reported to logger.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger, stdin: os.Stdin}
}

// WithStdin makes StdinPath read from in.
func (r *Reader) WithStdin(in io.Reader) *Reader {
	r.stdin = in
	return r
}

// ReadFiles returns every line of every readable file, in file order and
// then line order, without line terminators. Directories, missing files and
// files without read permission are skipped. It fails with
// ErrNoReadableFiles when nothing could be read and with ErrEmptyInput when
// the readable files hold no lines.
func (r *Reader) ReadFiles(ctx context.Context, paths []string) ([]string, error) {
	var lines []string
	files := 0

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			fileLines []string
			ok        bool
			err       error
		)
		if path == StdinPath {
			fileLines, err = readLines(path, r.stdin)
			ok = true
		} else {
			fileLines, ok, err = r.readFile(path)
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		files++
		lines = append(lines, fileLines...)
		r.logger.Debug("read file", "path", path, "lines", len(fileLines))
	}

	if files == 0 {
		return nil, ErrNoReadableFiles
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}
	return lines, nil
}

// readFile reads one file. ok is false when the file was skipped.
func (r *Reader) readFile(path string) (lines []string, ok bool, err error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			r.logger.Warn("skipping file without read permissions", "path", path)
		}
		return nil, false, nil
	}
	defer f.Close()

	var src io.Reader = f
	if isGzip(path) {
		gz, err := gzip.NewReader(f)
		if errors.Is(err, io.EOF) {
			// A zero-byte archive holds no lines.
			return nil, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("File %s is %w", path, ErrBadGzip)
		}
		defer gz.Close()
		src = gz
	}

	lines, err = readLines(path, src)
	if err != nil {
		return nil, false, err
	}
	return lines, true, nil
}

func isGzip(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".gzip")
}

// readLines splits src into lines. "\n", "\r\n" and a lone "\r" all end a
// line. Lines have no length limit.
func readLines(path string, src io.Reader) ([]string, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	sc.Split(scanLines)

	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("Cannot read log events from file %s. %w", path, ErrNotText)
		}
		lines = append(lines, line)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, gzip.ErrChecksum) || errors.Is(err, gzip.ErrHeader) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("File %s is %w", path, ErrBadGzip)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// scanLines is a bufio.SplitFunc that accepts any of the three line endings.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// Wait for the next byte to tell "\r\n" from a lone "\r".
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

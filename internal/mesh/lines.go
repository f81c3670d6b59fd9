// Package mesh indexes fixed-layout OBJ exports into face groups and flags corrupted texture records.
package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LineStore is a read-only, 1-based view over the lines of an input file.
// Line terminators are stripped; the rest of each line is kept byte-for-byte.
type LineStore struct {
	lines []string
}

// LoadLines reads the file at path into a LineStore.
func LoadLines(path string) (*LineStore, error) {
	if path == "" {
		return nil, fmt.Errorf("input path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	store, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return store, nil
}

// ReadLines reads every line from r. A trailing newline does not produce an extra empty line.
func ReadLines(r io.Reader) (*LineStore, error) {
	reader := bufio.NewReader(r)
	lines := make([]string, 0, 1024)

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, trimTerminator(line))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return &LineStore{lines: lines}, nil
}

// NewLineStore wraps already-split lines. Used by tests and in-memory callers.
func NewLineStore(lines []string) *LineStore {
	cp := make([]string, len(lines))
	for i, l := range lines {
		cp[i] = trimTerminator(l)
	}
	return &LineStore{lines: cp}
}

// Len returns the number of lines.
func (s *LineStore) Len() int {
	return len(s.lines)
}

// Line returns line n (1-based). Out-of-range lines read as "".
func (s *LineStore) Line(n int) string {
	if n < 1 || n > len(s.lines) {
		return ""
	}
	return s.lines[n-1]
}

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

package rendering

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/uv-repair/internal/mesh"
)

// DefaultOutputName is used when no output path is configured.
const DefaultOutputName = "repaired.obj"

// WriteRepaired writes every line of store to w, substituting the replacement for
// each line number present in replacements. Every line is terminated with "\n",
// so the output always has store.Len() lines. It returns the number of lines
// replaced.
func WriteRepaired(w io.Writer, store *mesh.LineStore, replacements map[int]string) (int, error) {
	bw := bufio.NewWriter(w)
	replaced := 0

	for i := 1; i <= store.Len(); i++ {
		line := store.Line(i)
		if r, ok := replacements[i]; ok {
			line = r
			replaced++
		}
		if _, err := bw.WriteString(line); err != nil {
			return replaced, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return replaced, err
		}
	}

	return replaced, bw.Flush()
}

// WriteRepairedFile writes the repaired copy to path. The file is written to a
// temporary sibling first and renamed into place, so a failed run never leaves a
// truncated output behind.
func WriteRepairedFile(path string, store *mesh.LineStore, replacements map[int]string) (int, error) {
	if path == "" {
		path = DefaultOutputName
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, &WriteError{Path: path, Message: "failed to create output directory", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, &WriteError{Path: path, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	replaced, err := WriteRepaired(tmp, store, replacements)
	if err != nil {
		_ = tmp.Close()
		return 0, &WriteError{Path: path, Message: "failed to write repaired lines", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &WriteError{Path: path, Message: "failed to close temporary file", Cause: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, &WriteError{Path: path, Message: "failed to set permissions", Cause: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, &WriteError{Path: path, Message: "failed to move output into place", Cause: err}
	}

	return replaced, nil
}

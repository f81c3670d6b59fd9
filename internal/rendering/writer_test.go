package rendering

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/uv-repair/internal/mesh"
)

func TestWriteRepaired_SubstitutesOnlyKeyedLines(t *testing.T) {
	store := mesh.NewLineStore([]string{
		"# exported",
		"v 0 0 0",
		"vt #QNAN #QNAN",
		"f 1/1 1/1 1/1",
	})

	var buf bytes.Buffer
	replaced, err := WriteRepaired(&buf, store, map[int]string{3: "vt 0.5 0.5"})
	require.NoError(t, err)
	assert.Equal(t, 1, replaced)

	want := "# exported\nv 0 0 0\nvt 0.5 0.5\nf 1/1 1/1 1/1\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRepaired_LineCountPreserved(t *testing.T) {
	lines := []string{"a", "", "  indented  ", "vt 1 1", ""}
	store := mesh.NewLineStore(lines)

	var buf bytes.Buffer
	_, err := WriteRepaired(&buf, store, map[int]string{99: "ignored"})
	require.NoError(t, err)

	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(lines, got); diff != "" {
		t.Errorf("lines changed (-want +got):\n%s", diff)
	}
}

func TestWriteRepaired_EmptyStore(t *testing.T) {
	var buf bytes.Buffer
	replaced, err := WriteRepaired(&buf, mesh.NewLineStore(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, replaced)
	assert.Empty(t, buf.String())
}

func TestWriteRepairedFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "repaired.obj")
	store := mesh.NewLineStore([]string{"v 0 0 0", "vt #QNAN #QNAN"})

	replaced, err := WriteRepairedFile(out, store, map[int]string{2: "vt 0.1 0.2"})
	require.NoError(t, err)
	assert.Equal(t, 1, replaced)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "v 0 0 0\nvt 0.1 0.2\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

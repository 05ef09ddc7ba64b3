package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNil(t *testing.T) {
	set, err := Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, set)
	assert.True(t, set.Allows("anything"))
}

func TestParseEmptyList(t *testing.T) {
	set, err := Parse(List{})
	require.NoError(t, err)
	assert.Nil(t, set)
	assert.True(t, set.Allows("anything"))
}

func TestParseList(t *testing.T) {
	set, err := Parse(List{"NC_000001", "NC_000002", "NC_000001"})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Allows("NC_000001"))
	assert.False(t, set.Allows("NC_000003"))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessions.txt")
	require.NoError(t, os.WriteFile(path, []byte("seq1\nseq2\r\nseq3\n\n"), 0o644))

	set, err := Parse(File(path))
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	for _, acc := range []string{"seq1", "seq2", "seq3"} {
		assert.True(t, set.Allows(acc), acc)
	}
	assert.False(t, set.Allows(""))
}

func TestParseEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))

	set, err := Parse(File(path))
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(File(filepath.Join(t.TempDir(), "missing.txt")))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadLinesKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessions.txt")
	require.NoError(t, os.WriteFile(path, []byte("b\na\nc\n"), 0o644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, lines)
}

func TestParseSetIsShared(t *testing.T) {
	parsed, err := Parse(List{"a", "b"})
	require.NoError(t, err)

	again, err := Parse(parsed)
	require.NoError(t, err)
	assert.Equal(t, parsed, again)

	empty, err := Parse(Set{})
	require.NoError(t, err)
	assert.Nil(t, empty)
}

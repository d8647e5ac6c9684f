package blobstore

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOpenRemove(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/uploads")

	stored, err := store.Save("p1", "report.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", stored.Filename)
	assert.Equal(t, int64(5), stored.Size)
	assert.True(t, strings.HasPrefix(stored.Path, "/p1/"))
	assert.True(t, strings.HasSuffix(stored.Path, "_report.pdf"))

	f, err := store.Open(stored.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Remove(stored.Path))
	_, err = store.Open(stored.Path)
	assert.Error(t, err)

	assert.NoError(t, store.Remove(stored.Path), "removing a missing blob is not an error")
}

func TestSaveStripsDirectories(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/uploads")

	stored, err := store.Save("../p1", "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", stored.Filename)
	assert.True(t, strings.HasPrefix(stored.Path, "/p1/"))
}

func TestSaveSameNameTwiceKeepsBoth(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/uploads")

	a, err := store.Save("p1", "a.txt", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := store.Save("p1", "a.txt", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

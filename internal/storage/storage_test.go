package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := newTestStore(t)

	name, size, err := store.Save(strings.NewReader("hello world"), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.Equal(t, name, filepath.Base(name))

	f, err := store.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestSaveIgnoresClientPath(t *testing.T) {
	store := newTestStore(t)

	name, _, err := store.Save(strings.NewReader("x"), "../../etc/passwd")
	require.NoError(t, err)
	assert.NotContains(t, name, "..")
	assert.NotContains(t, name, "/")

	// Two saves of the same original name never collide.
	other, _, err := store.Save(strings.NewReader("y"), "../../etc/passwd")
	require.NoError(t, err)
	assert.NotEqual(t, name, other)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	name, _, err := store.Save(strings.NewReader("data"), "a.txt")
	require.NoError(t, err)

	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Already gone; still not an error.
	assert.NoError(t, store.Delete(name))
	assert.NoError(t, store.Delete(""))
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../secret", "a/../../b", "/etc/passwd", "..", ""} {
		_, err := store.Open(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestSanitizeExt(t *testing.T) {
	assert.Equal(t, ".pdf", sanitizeExt("Report.PDF"))
	assert.Equal(t, ".txt", sanitizeExt("notes.txt"))
	assert.Equal(t, "", sanitizeExt("noext"))
	assert.Equal(t, "", sanitizeExt("weird.extension-way-too-long"))
}

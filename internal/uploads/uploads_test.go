package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := New(dir, 1024)
	require.NoError(t, err)

	stored, err := s.Save("Cat.PNG", strings.NewReader("pngdata"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "uploads/"))
	assert.True(t, strings.HasSuffix(stored, ".png"))

	body, err := os.ReadFile(filepath.Join(dir, filepath.Base(stored)))
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(body))

	other, err := s.Save("cat.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotEqual(t, stored, other)

	require.NoError(t, s.Remove(stored))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(stored)))
	assert.True(t, os.IsNotExist(err))
}

func TestSave_Rejects(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 4)
	require.NoError(t, err)

	_, err = s.Save("script.html", strings.NewReader("<script>"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save("noext", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save("big.jpg", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not leave files behind")
}

func TestRemove_RejectsForeignPaths(t *testing.T) {
	s, err := New(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Error(t, s.Remove("../etc/passwd"))
	assert.Error(t, s.Remove("uploads/../../x"))
}

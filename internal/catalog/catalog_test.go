package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestCatalogScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.mp3")
	writeFile(t, dir, "alpha.mp3")
	writeFile(t, dir, "LOUD.MP3")
	writeFile(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o755))

	c := New(dir)

	assert.Equal(t, []string{"LOUD.MP3", "alpha.mp3", "zeta.mp3"}, c.Songs())
}

func TestCatalogMissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Empty(t, c.Songs())
}

func TestCatalogRefresh(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.mp3")

	c := New(dir)
	require.Equal(t, []string{"one.mp3"}, c.Songs())

	writeFile(t, dir, "two.mp3")
	require.NoError(t, c.Refresh())
	assert.Equal(t, []string{"one.mp3", "two.mp3"}, c.Songs())
}

func TestCatalogSongsReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.mp3")

	c := New(dir)
	songs := c.Songs()
	songs[0] = "mutated"

	assert.Equal(t, []string{"one.mp3"}, c.Songs())
}

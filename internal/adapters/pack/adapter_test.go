package pack

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePack(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	w := zip.NewWriter(out)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestOpenReadsManifestAndRecords(t *testing.T) {
	path := writePack(t, map[string]string{
		"manifest.yaml": "name: French Basics\nnote_type: Basic\ntags: [french, a1]\n",
		"notes.tsv":     "hello\tbonjour\ngoodbye\tau revoir\n",
	})

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "French Basics", a.Manifest().Name)
	assert.Equal(t, "Basic", a.Hints().NoteType)

	rec, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Index)
	assert.Equal(t, []string{"hello", "bonjour"}, rec.Fields)
	assert.Equal(t, []string{"french", "a1"}, rec.Tags)

	rec, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"goodbye", "au revoir"}, rec.Fields)

	_, err = a.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenManifestMapping(t *testing.T) {
	path := writePack(t, map[string]string{
		"manifest.yaml": "note_type: Basic\nmapping:\n  fields:\n    - field_index: 1\n    - field_index: 0\n  tags_column: 2\n",
		"notes.tsv":     "back\tfront\ttag1 tag2\n",
	})

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	mapping := a.Hints().Mapping
	require.NotNil(t, mapping)
	require.Len(t, mapping.Rules, 2)
	assert.Equal(t, 1, mapping.Rules[0].FieldIndex)
	assert.Equal(t, 2, mapping.TagsColumn)
}

func TestOpenManifestMappingWithoutTagsColumn(t *testing.T) {
	path := writePack(t, map[string]string{
		"manifest.yaml": "note_type: Basic\nmapping:\n  fields:\n    - field_index: 0\n    - field_index: 1\n",
		"notes.tsv":     "hello world\tbonjour\n",
	})

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	mapping := a.Hints().Mapping
	require.NotNil(t, mapping)
	assert.Equal(t, -1, mapping.TagsColumn, "omitted tags_column must disable tag extraction, not read column 0")

	rec, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", "bonjour"}, rec.Fields)
	assert.Empty(t, rec.Tags)
}

func TestOpenMissingManifest(t *testing.T) {
	path := writePack(t, map[string]string{"notes.tsv": "a\tb\n"})

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest.yaml")
}

func TestOpenMissingNotes(t *testing.T) {
	path := writePack(t, map[string]string{"manifest.yaml": "note_type: Basic\n"})

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.tsv")
}

func TestOpenNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

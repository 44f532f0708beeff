package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/entities"
)

func TestNewDatabaseSeedsNoteTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	var types []entities.NoteType
	require.NoError(t, db.DB.Preload("Fields").Preload("Templates").Find(&types).Error)
	require.Len(t, types, 3)

	byName := map[string]entities.NoteType{}
	for _, nt := range types {
		byName[nt.Name] = nt
	}

	basic, ok := byName["Basic"]
	require.True(t, ok)
	assert.Len(t, basic.Fields, 2)
	assert.Len(t, basic.Templates, 1)
	assert.Equal(t, 0, basic.KeyFieldOrd)

	reversed, ok := byName["Basic (reversed)"]
	require.True(t, ok)
	assert.Len(t, reversed.Templates, 2)
}

func TestNewDatabaseSeedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.DB.Model(&entities.NoteType{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

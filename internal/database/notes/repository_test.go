package notes

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/entities"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestNoteTypeByNameOrdersFields(t *testing.T) {
	repo := setupRepo(t)

	nt, err := repo.NoteTypeByName("Vocabulary")
	require.NoError(t, err)

	assert.Equal(t, []string{"Word", "Meaning", "Example"}, nt.FieldNames())
	require.Len(t, nt.Templates, 1)

	_, err = repo.NoteTypeByName("Missing")
	assert.Error(t, err)
}

func TestGetOrCreateTag(t *testing.T) {
	repo := setupRepo(t)

	first, err := GetOrCreateTag(repo.DB(), "vocab")
	require.NoError(t, err)
	again, err := GetOrCreateTag(repo.DB(), "vocab")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := GetOrCreateTag(repo.DB(), "grammar")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestSearchNotes(t *testing.T) {
	repo := setupRepo(t)
	nt, err := repo.NoteTypeByName("Basic")
	require.NoError(t, err)

	for _, front := range []string{"apple", "apricot", "banana"} {
		n := &entities.Note{GUID: front, NoteTypeID: nt.ID, SortField: front, DupeKey: front}
		n.SetFieldValues([]string{front, "fruit"})
		require.NoError(t, repo.DB().Create(n).Error)
	}

	all, err := repo.SearchNotes(nt.ID, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := repo.SearchNotes(nt.ID, "AP", 0, 0)
	require.NoError(t, err)
	assert.Len(t, matched, 2, "sort-field match is case-insensitive")

	paged, err := repo.SearchNotes(nt.ID, "", 2, 1)
	require.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, "apricot", paged[0].SortField)
}

func TestStats(t *testing.T) {
	repo := setupRepo(t)
	nt, err := repo.NoteTypeByName("Basic")
	require.NoError(t, err)

	n := &entities.Note{GUID: "g", NoteTypeID: nt.ID, SortField: "x", DupeKey: "x",
		Cards: []entities.Card{{TemplateOrd: 0}}}
	n.SetFieldValues([]string{"x", "y"})
	require.NoError(t, repo.DB().Create(n).Error)

	totalNotes, totalCards, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), totalNotes)
	assert.Equal(t, int64(1), totalCards)
}

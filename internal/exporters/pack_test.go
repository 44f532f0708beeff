package exporters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/adapters/pack"
	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
)

func seedNotes(t *testing.T) (*notes.Repository, *services.ImportService) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := notes.NewRepository(db.DB)
	service := services.NewImportService(repo, sessions.NewRepository(db.DB))

	src := importer.NewSliceSource([]importer.RawRecord{
		{Index: 1, Fields: []string{"hello", "bonjour"}, Tags: []string{"french"}},
		{Index: 2, Fields: []string{"goodbye", "au revoir"}},
	})
	_, _, err = service.ImportStream(context.Background(), src, services.Options{
		SourceName: "seed",
		NoteType:   "Basic",
		TagsColumn: -1,
	})
	require.NoError(t, err)
	return repo, service
}

func TestExportRoundTrip(t *testing.T) {
	repo, service := seedNotes(t)

	outPath := filepath.Join(t.TempDir(), "deck.zip")
	result, err := NewPackExporter(repo).Export("Basic", "My Deck", outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NotesExported)

	// The exported pack must re-import cleanly, tags included.
	adapter, err := pack.Open(outPath)
	require.NoError(t, err)
	defer adapter.Close()

	assert.Equal(t, "Basic", adapter.Hints().NoteType)

	report, _, err := service.ImportStream(context.Background(), adapter, services.Options{
		SourceName:  "deck.zip",
		NoteType:    "Basic",
		Mapping:     adapter.Hints().Mapping,
		TagsColumn:  -1,
		OnDuplicate: importer.DuplicateUpdate,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Errored)

	nt, err := repo.NoteTypeByName("Basic")
	require.NoError(t, err)
	imported, err := notes.NotesOfType(repo.DB(), nt.ID)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	for _, n := range imported {
		if n.SortField == "hello" {
			assert.Equal(t, []string{"french"}, n.TagNames())
		}
	}
}

func TestExportUnknownNoteType(t *testing.T) {
	repo, _ := seedNotes(t)

	_, err := NewPackExporter(repo).Export("Nope", "x", filepath.Join(t.TempDir(), "deck.zip"))
	assert.Error(t, err)
}

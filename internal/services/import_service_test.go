package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
)

func setupService(t *testing.T) (*ImportService, *sessions.Repository) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessionRepo := sessions.NewRepository(db.DB)
	return NewImportService(notes.NewRepository(db.DB), sessionRepo), sessionRepo
}

func sliceSource(rows ...[]string) *importer.SliceSource {
	recs := make([]importer.RawRecord, len(rows))
	for i, row := range rows {
		recs[i] = importer.RawRecord{Index: i + 1, Fields: row}
	}
	return importer.NewSliceSource(recs)
}

func TestImportStreamPersistsSession(t *testing.T) {
	service, sessionRepo := setupService(t)

	report, session, err := service.ImportStream(context.Background(),
		sliceSource([]string{"hello", "bonjour"}, []string{"", "broken"}),
		Options{SourceName: "deck.tsv", NoteType: "Basic", TagsColumn: -1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Errored)

	stored, err := sessionRepo.ByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, stored.Status)
	assert.Equal(t, "deck.tsv", stored.SourceName)
	assert.Equal(t, 1, stored.Added)
	assert.Contains(t, stored.Problems, "uniqueness field is empty")
}

func TestImportStreamUnknownNoteType(t *testing.T) {
	service, _ := setupService(t)

	_, _, err := service.ImportStream(context.Background(), sliceSource(),
		Options{SourceName: "x", NoteType: "Nope", TagsColumn: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown note type")
}

func TestImportStreamDryRunMarksSession(t *testing.T) {
	service, sessionRepo := setupService(t)

	_, session, err := service.ImportStream(context.Background(),
		sliceSource([]string{"hello", "bonjour"}),
		Options{SourceName: "deck.tsv", NoteType: "Basic", TagsColumn: -1, DryRun: true})
	require.NoError(t, err)

	stored, err := sessionRepo.ByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "deck.tsv (dry run)", stored.SourceName)
}

func TestCancelUnknownSession(t *testing.T) {
	service, _ := setupService(t)

	assert.False(t, service.Cancel(999))
	assert.Nil(t, service.Progress(999))
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(importer.ErrCanceled))
	assert.False(t, IsCanceled(assert.AnError))
}

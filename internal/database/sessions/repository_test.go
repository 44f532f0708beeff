package sessions

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestCreateAndFinalize(t *testing.T) {
	repo := setupRepo(t)

	session, err := repo.Create("deck.tsv", 1)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusRunning, session.Status)
	assert.Nil(t, session.CompletedAt)

	report := &importer.Report{
		Added:   3,
		Skipped: 1,
		Errored: 1,
		Problems: []importer.Problem{
			{RecordIndex: 2, Message: "uniqueness field is empty"},
		},
	}
	require.NoError(t, repo.Finalize(session, report, entities.ImportStatusCompleted, ""))

	stored, err := repo.ByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, stored.Status)
	assert.Equal(t, 3, stored.Added)
	assert.Equal(t, 1, stored.Errored)
	assert.Contains(t, stored.Problems, "uniqueness field is empty")
	require.NotNil(t, stored.CompletedAt)
}

func TestFinalizeAborted(t *testing.T) {
	repo := setupRepo(t)

	session, err := repo.Create("bad.zip", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Finalize(session, &importer.Report{}, entities.ImportStatusAborted, "adapter: truncated stream"))

	stored, err := repo.ByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusAborted, stored.Status)
	assert.Equal(t, "adapter: truncated stream", stored.FatalError)
}

func TestRecentNewestFirst(t *testing.T) {
	repo := setupRepo(t)

	for _, name := range []string{"one", "two", "three"} {
		_, err := repo.Create(name, 1)
		require.NoError(t, err)
	}

	recent, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}

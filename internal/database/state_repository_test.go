package database

import (
	"context"
	"testing"

	"github.com/example/vocabpack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *StateRepository {
	t.Helper()
	db, err := Connect(Config{Type: TypeSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStateRepository(db)
}

func TestStateRepositoryLoadEmpty(t *testing.T) {
	repo := newTestRepository(t)
	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultState(), s)
}

func TestStateRepositorySaveLoadReset(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	s := models.DefaultState()
	s.ActiveLang = models.Japanese
	s.Lang(models.Japanese).Session = 2
	require.NoError(t, repo.Save(ctx, s))

	s.Lang(models.Japanese).Session = 3
	require.NoError(t, repo.Save(ctx, s), "second save updates the same record")

	var rows int
	require.NoError(t, repo.db.Get(&rows, "SELECT COUNT(*) FROM app_state"))
	assert.Equal(t, 1, rows)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Japanese, loaded.ActiveLang)
	assert.Equal(t, 3, loaded.Lang(models.Japanese).Session)

	require.NoError(t, repo.Reset(ctx))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultState(), loaded)
}

func TestStateRepositoryCorruptRecordFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	_, err := repo.db.Exec(`INSERT INTO app_state (id, schema_version, payload, updated_at) VALUES (1, 1, 'garbage', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	s, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultState(), s)
}

func TestConnectRejectsUnknownType(t *testing.T) {
	_, err := Connect(Config{Type: "oracle"})
	require.Error(t, err)
}

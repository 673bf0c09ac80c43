package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardkit/internal/defaults"
	"github.com/leapstack-labs/boardkit/internal/testutil"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/leapstack-labs/boardkit/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	s, err := defaults.Schema()
	require.NoError(t, err)
	cards, err := defaults.Cards()
	require.NoError(t, err)
	c, err := catalog.New(catalog.Config{Schema: s, Records: cards})
	require.NoError(t, err)
	return c
}

func TestSQLiteStore_OpenMigrate(t *testing.T) {
	store := NewSQLiteStore(nil)
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	require.NoError(t, store.Open(path))
	defer store.Close()

	require.NoError(t, store.Migrate())
	require.NoError(t, store.Migrate(), "migrating twice is a no-op")

	version, err := store.LayoutVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, path, store.Path())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "k", nil))
	assert.ErrorIs(t, store.Migrate(), errNotOpen)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_KV(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("one")))
	require.NoError(t, store.Set(ctx, "k", []byte("two")))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_CatalogRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.LoadCatalog(ctx, catalog.Config{})
	assert.ErrorIs(t, err, ErrNotFound)

	c := defaultCatalog(t)
	_, err = c.Assign("director", "amal-clooney")
	require.NoError(t, err)
	require.NoError(t, store.SaveCatalog(ctx, c))

	loaded, err := store.LoadCatalog(ctx, catalog.Config{})
	require.NoError(t, err)
	assert.Equal(t, c.SchemaHash(), loaded.SchemaHash())
	assert.Equal(t, c.Records(), loaded.Records())
	assert.Equal(t, c.Board(), loaded.Board())

	v, err := store.GetSchemaVersion(ctx, c.SchemaHash())
	require.NoError(t, err)
	assert.Equal(t, "journal.cards.v1", v.SchemaID)
}

func TestSQLiteStore_CommitMigration(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := defaultCatalog(t)
	require.NoError(t, store.SaveCatalog(ctx, c))
	oldHash := c.SchemaHash()

	data, err := json.Marshal(c.Schema())
	require.NoError(t, err)
	var draft core.Schema
	require.NoError(t, json.Unmarshal(data, &draft))
	draft.Fields = append(draft.Fields, core.FieldDefinition{ID: "notes2", Label: "Extra", Type: core.FieldText})

	res, err := c.ApplySchemaChange(&draft, nil, nil, false)
	require.NoError(t, err)

	rec, err := store.CommitMigration(ctx, c, res)
	require.NoError(t, err)
	assert.Equal(t, oldHash, rec.FromHash)
	assert.Equal(t, 1, rec.Added)
	assert.False(t, rec.Destructive)

	log, err := store.ListMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, rec.ID, log[0].ID)
	assert.Equal(t, res.NewHash, log[0].ToHash)
	assert.Equal(t, 6, log[0].Records)

	loaded, err := store.LoadCatalog(ctx, catalog.Config{})
	require.NoError(t, err)
	assert.NotNil(t, loaded.Schema().Field("notes2"))

	_, err = store.GetSchemaVersion(ctx, oldHash)
	assert.NoError(t, err, "previous schema kept in history")
}

func TestSQLiteStore_SaveCatalogRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &SQLiteStore{db: db, logger: testutil.NewTestLogger(t)}
	c := defaultCatalog(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO kv").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = store.SaveCatalog(context.Background(), c)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CommitMigrationRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &SQLiteStore{db: db, logger: testutil.NewTestLogger(t)}
	c := defaultCatalog(t)
	res := &catalog.ChangeResult{Plan: &core.MigrationPlan{}, OldHash: "a", NewHash: "b"}

	mock.ExpectBegin()
	for range 4 {
		mock.ExpectExec("INSERT INTO kv").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO schema_versions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO migrations").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = store.CommitMigration(context.Background(), c, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record migration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

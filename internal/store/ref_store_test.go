package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhart/boxinv/internal/db"
	"github.com/jmhart/boxinv/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func TestRefStoreCreate(t *testing.T) {
	refs := NewRefStore(openTestDB(t))
	ctx := context.Background()

	ref, err := refs.Create(ctx, domain.KindCategory, "  Tools ")
	require.NoError(t, err)
	assert.NotZero(t, ref.ID)
	assert.Equal(t, domain.KindCategory, ref.Kind)
	assert.Equal(t, "Tools", ref.Name, "name must be stored trimmed")
}

func TestRefStoreCreate_DuplicateNormalizedName(t *testing.T) {
	refs := NewRefStore(openTestDB(t))
	ctx := context.Background()

	_, err := refs.Create(ctx, domain.KindCategory, "Tools")
	require.NoError(t, err)

	_, err = refs.Create(ctx, domain.KindCategory, " tools ")
	assert.Error(t, err, "normalized names must be unique per kind")

	// Same name under a different kind is fine.
	_, err = refs.Create(ctx, domain.KindRoom, "Tools")
	assert.NoError(t, err)
}

func TestRefStoreGetByName_CaseInsensitive(t *testing.T) {
	refs := NewRefStore(openTestDB(t))
	ctx := context.Background()

	created, err := refs.Create(ctx, domain.KindRoom, "Attic")
	require.NoError(t, err)

	found, err := refs.GetByName(ctx, domain.KindRoom, "  aTTic ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Attic", found.Name, "original casing must be preserved")
}

func TestRefStoreGetByName_Missing(t *testing.T) {
	refs := NewRefStore(openTestDB(t))
	ctx := context.Background()

	found, err := refs.GetByName(ctx, domain.KindShelf, "Nope")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRefStoreListByKind(t *testing.T) {
	refs := NewRefStore(openTestDB(t))
	ctx := context.Background()

	_, err := refs.Create(ctx, domain.KindCategory, "Tools")
	require.NoError(t, err)
	_, err = refs.Create(ctx, domain.KindCategory, "electronics")
	require.NoError(t, err)
	_, err = refs.Create(ctx, domain.KindRoom, "Attic")
	require.NoError(t, err)

	list, err := refs.ListByKind(ctx, domain.KindCategory)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Case-insensitive alphabetical order
	assert.Equal(t, "electronics", list[0].Name)
	assert.Equal(t, "Tools", list[1].Name)
}

func TestRefStoreDelete_ClearsItemReference(t *testing.T) {
	d := openTestDB(t)
	refs := NewRefStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	cat, err := refs.Create(ctx, domain.KindCategory, "Tools")
	require.NoError(t, err)

	item, err := items.Create(ctx, ItemParams{Name: "Drill", CategoryID: &cat.ID})
	require.NoError(t, err)

	require.NoError(t, refs.Delete(ctx, cat.ID))

	// The item survives and simply loses the reference.
	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CategoryID)
}

func TestRefStoreDeleteAllByKind(t *testing.T) {
	refs := NewRefStore(openTestDB(t))
	ctx := context.Background()

	_, err := refs.Create(ctx, domain.KindCategory, "Tools")
	require.NoError(t, err)
	_, err = refs.Create(ctx, domain.KindCategory, "Garden")
	require.NoError(t, err)
	_, err = refs.Create(ctx, domain.KindRoom, "Attic")
	require.NoError(t, err)

	require.NoError(t, refs.DeleteAllByKind(ctx, domain.KindCategory))

	cats, err := refs.ListByKind(ctx, domain.KindCategory)
	require.NoError(t, err)
	assert.Empty(t, cats)

	rooms, err := refs.ListByKind(ctx, domain.KindRoom)
	require.NoError(t, err)
	assert.Len(t, rooms, 1, "other kinds must be untouched")
}

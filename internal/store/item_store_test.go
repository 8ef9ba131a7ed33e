package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhart/boxinv/internal/domain"
)

func TestItemStoreCreate(t *testing.T) {
	d := openTestDB(t)
	refs := NewRefStore(d)
	boxes := NewBoxStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	cat, err := refs.Create(ctx, domain.KindCategory, "Tools")
	require.NoError(t, err)
	box, err := boxes.Create(ctx, "3")
	require.NoError(t, err)

	item, err := items.Create(ctx, ItemParams{
		Name:        "Drill",
		Description: "cordless",
		Barcode:     "100001",
		BoxID:       &box.ID,
		CategoryID:  &cat.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Drill", item.Name)
	assert.Equal(t, "cordless", item.Description)
	assert.Equal(t, "100001", item.Barcode)
	require.NotNil(t, item.BoxID)
	assert.Equal(t, box.ID, *item.BoxID)
	require.NotNil(t, item.CategoryID)
	assert.Equal(t, cat.ID, *item.CategoryID)
	assert.Nil(t, item.RoomID)
}

func TestItemStoreList_Order(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	_, err := items.Create(ctx, ItemParams{Name: "tape", Barcode: "2"})
	require.NoError(t, err)
	_, err = items.Create(ctx, ItemParams{Name: "Drill", Barcode: "1"})
	require.NoError(t, err)

	list, err := items.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Case-insensitive alphabetical
	assert.Equal(t, "Drill", list[0].Name)
	assert.Equal(t, "tape", list[1].Name)
}

func TestItemStoreUpdate_BumpsLastUpdated(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	item, err := items.Create(ctx, ItemParams{Name: "Drill"})
	require.NoError(t, err)

	// datetime('now') has one-second resolution.
	time.Sleep(1100 * time.Millisecond)

	err = items.Update(ctx, item.ID, ItemParams{Name: "Hammer Drill", Description: "SDS"})
	require.NoError(t, err)

	updated, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hammer Drill", updated.Name)
	assert.Equal(t, "SDS", updated.Description)
	assert.True(t, updated.LastUpdated.After(item.LastUpdated))
}

func TestItemStoreUpdate_NotFound(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	err := items.Update(ctx, 99999, ItemParams{Name: "Name"})
	assert.Error(t, err)
}

func TestItemStoreSetBox(t *testing.T) {
	d := openTestDB(t)
	boxes := NewBoxStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	box, err := boxes.Create(ctx, "5")
	require.NoError(t, err)
	item, err := items.Create(ctx, ItemParams{Name: "Tape"})
	require.NoError(t, err)

	require.NoError(t, items.SetBox(ctx, item.ID, &box.ID))

	moved, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.BoxID)
	assert.Equal(t, box.ID, *moved.BoxID)
}

func TestItemStoreDeleteAll(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	_, err := items.Create(ctx, ItemParams{Name: "Drill"})
	require.NoError(t, err)
	_, err = items.Create(ctx, ItemParams{Name: "Tape"})
	require.NoError(t, err)

	require.NoError(t, items.DeleteAll(ctx))

	count, err := items.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestItemStoreCountWithImages(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	_, err := items.Create(ctx, ItemParams{Name: "Drill", ImageKey: "100001.jpg"})
	require.NoError(t, err)
	_, err = items.Create(ctx, ItemParams{Name: "Tape"})
	require.NoError(t, err)

	count, err := items.CountWithImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

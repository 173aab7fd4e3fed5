package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/eatai/internal/domain"
)

func TestShoppingStoreCreateAndList(t *testing.T) {
	shopping := NewShoppingStore(openTestDB(t))
	ctx := context.Background()

	bread, err := shopping.Create(ctx, 1, "Bread")
	require.NoError(t, err)
	assert.False(t, bread.Purchased)

	_, err = shopping.Create(ctx, 1, "Apples")
	require.NoError(t, err)
	_, err = shopping.Create(ctx, 2, "Coffee")
	require.NoError(t, err)

	_, err = shopping.Toggle(ctx, 1, bread.ID)
	require.NoError(t, err)

	list, err := shopping.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Apples", list[0].Name)
	assert.False(t, list[0].Purchased)
	assert.Equal(t, "Bread", list[1].Name)
	assert.True(t, list[1].Purchased)
}

func TestShoppingStoreFindPendingByName(t *testing.T) {
	shopping := NewShoppingStore(openTestDB(t))
	ctx := context.Background()

	item, err := shopping.Create(ctx, 1, "Olive Oil")
	require.NoError(t, err)

	found, err := shopping.FindPendingByName(ctx, 1, "olive oil")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, item.ID, found.ID)

	other, err := shopping.FindPendingByName(ctx, 2, "Olive Oil")
	require.NoError(t, err)
	assert.Nil(t, other)

	_, err = shopping.Toggle(ctx, 1, item.ID)
	require.NoError(t, err)
	purchased, err := shopping.FindPendingByName(ctx, 1, "Olive Oil")
	require.NoError(t, err)
	assert.Nil(t, purchased)
}

func TestShoppingStoreToggle_OtherOwnerIsNotFound(t *testing.T) {
	shopping := NewShoppingStore(openTestDB(t))
	ctx := context.Background()

	item, err := shopping.Create(ctx, 1, "Bread")
	require.NoError(t, err)

	_, err = shopping.Toggle(ctx, 2, item.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := shopping.GetByID(ctx, 1, item.ID)
	require.NoError(t, err)
	assert.False(t, got.Purchased)
}

func TestShoppingStoreDeletePurchased(t *testing.T) {
	shopping := NewShoppingStore(openTestDB(t))
	ctx := context.Background()

	a, err := shopping.Create(ctx, 1, "A")
	require.NoError(t, err)
	_, err = shopping.Create(ctx, 1, "B")
	require.NoError(t, err)
	c, err := shopping.Create(ctx, 2, "C")
	require.NoError(t, err)

	_, err = shopping.Toggle(ctx, 1, a.ID)
	require.NoError(t, err)
	_, err = shopping.Toggle(ctx, 2, c.ID)
	require.NoError(t, err)

	n, err := shopping.DeletePurchased(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mine, err := shopping.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "B", mine[0].Name)

	theirs, err := shopping.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, theirs, 1, "other owner's purchased items are untouched")
}

func TestShoppingStoreDelete_NotFound(t *testing.T) {
	shopping := NewShoppingStore(openTestDB(t))

	err := shopping.Delete(context.Background(), 1, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

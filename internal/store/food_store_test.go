package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/eatai/internal/db"
	"github.com/vbonduro/eatai/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func names(items []*domain.FoodItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestFoodStoreCreate(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	item, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Milk", Quantity: "1 liter", ExpiryDate: "2026-05-01", Category: "Dairy"})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, int64(1), item.OwnerID)
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, "1 liter", item.Quantity)
	assert.Equal(t, "Dairy", item.Category)
	require.NotNil(t, item.ExpiryDate)
	assert.Equal(t, "2026-05-01", item.ExpiryDate.Format(domain.DateLayout))
	assert.False(t, item.CreatedAt.IsZero())
}

func TestFoodStoreCreate_EmptyExpiryIsNull(t *testing.T) {
	d := openTestDB(t)
	foods := NewFoodStore(d)
	ctx := context.Background()

	item, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Rice", Quantity: "2 kg"})
	require.NoError(t, err)
	assert.Nil(t, item.ExpiryDate)

	var expiry sql.NullString
	require.NoError(t, d.QueryRow("SELECT expiry_date FROM food_inventory WHERE id = ?", item.ID).Scan(&expiry))
	assert.False(t, expiry.Valid)
}

func TestFoodStoreList_OrderedByExpiryNullsLast(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	for _, f := range []domain.FoodFields{
		{Name: "Rice", Quantity: "2 kg"},
		{Name: "Yogurt", Quantity: "4 cups", ExpiryDate: "2026-05-10"},
		{Name: "Spinach", Quantity: "1 bag", ExpiryDate: "2026-04-02"},
		{Name: "Flour", Quantity: "1 kg"},
		{Name: "Feta", Quantity: "200 g", ExpiryDate: "2026-04-20"},
	} {
		_, err := foods.Create(ctx, 1, f)
		require.NoError(t, err)
	}

	list, err := foods.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Spinach", "Feta", "Yogurt", "Rice", "Flour"}, names(list))

	nameList, err := foods.ListNames(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, names(list), nameList)
}

func TestFoodStoreList_ScopedToOwner(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	_, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Eggs", Quantity: "12"})
	require.NoError(t, err)
	_, err = foods.Create(ctx, 2, domain.FoodFields{Name: "Tofu", Quantity: "1 block"})
	require.NoError(t, err)

	mine, err := foods.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs"}, names(mine))

	theirs, err := foods.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tofu"}, names(theirs))

	nobody, err := foods.List(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, nobody)
}

func TestFoodStoreUpdate(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	item, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Milk", Quantity: "1 liter", ExpiryDate: "2026-05-01", Category: "Dairy"})
	require.NoError(t, err)

	updated, err := foods.Update(ctx, 1, item.ID, domain.FoodFields{Name: "Oat Milk", Quantity: "2 liters"})
	require.NoError(t, err)
	assert.Equal(t, "Oat Milk", updated.Name)
	assert.Equal(t, "2 liters", updated.Quantity)
	assert.Nil(t, updated.ExpiryDate, "edit replaces all fields, clearing the expiry date")
	assert.Empty(t, updated.Category)
}

func TestFoodStoreUpdate_OtherOwnerIsNotFound(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	item, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Milk", Quantity: "1 liter"})
	require.NoError(t, err)

	_, err = foods.Update(ctx, 2, item.ID, domain.FoodFields{Name: "Stolen", Quantity: "0"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	unchanged, err := foods.GetByID(ctx, 1, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", unchanged.Name)
}

func TestFoodStoreDelete(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	item, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Milk", Quantity: "1 liter"})
	require.NoError(t, err)

	require.NoError(t, foods.Delete(ctx, 1, item.ID))

	_, err = foods.GetByID(ctx, 1, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFoodStoreDelete_OtherOwnerIsNotFound(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))
	ctx := context.Background()

	item, err := foods.Create(ctx, 1, domain.FoodFields{Name: "Milk", Quantity: "1 liter"})
	require.NoError(t, err)

	err = foods.Delete(ctx, 2, item.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	list, err := foods.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFoodStoreDelete_NotFound(t *testing.T) {
	foods := NewFoodStore(openTestDB(t))

	err := foods.Delete(context.Background(), 1, 99999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFoodStoreList_QueryError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	mock.ExpectQuery("SELECT .* FROM food_inventory").WillReturnError(errors.New("disk I/O error"))

	_, err = NewFoodStore(mockDB).List(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list food items")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFoodStoreDelete_RowsAffectedError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	mock.ExpectExec("DELETE FROM food_inventory").
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver gave up")))

	err = NewFoodStore(mockDB).Delete(context.Background(), 1, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get rows affected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFoodStoreGetByID_CorruptExpiryDate(t *testing.T) {
	d := openTestDB(t)
	_, err := d.Exec(`INSERT INTO food_inventory (owner_id, name, quantity, expiry_date) VALUES (1, 'Jam', '1 jar', 'someday')`)
	require.NoError(t, err)

	_, err = NewFoodStore(d).GetByID(context.Background(), 1, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

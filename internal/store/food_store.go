package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/eatai/internal/domain"
)

const foodColumns = `id, owner_id, name, quantity, expiry_date, category, created_at, updated_at`

// FoodStore persists inventory rows. Every query is scoped by owner; a row
// belonging to another owner is indistinguishable from a missing one.
type FoodStore struct {
	db *sql.DB
}

func NewFoodStore(db *sql.DB) *FoodStore {
	return &FoodStore{db: db}
}

func (s *FoodStore) Create(ctx context.Context, ownerID int64, fields domain.FoodFields) (*domain.FoodItem, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO food_inventory (owner_id, name, quantity, expiry_date, category) VALUES (?, ?, ?, ?, ?)
	`, ownerID, fields.Name, fields.Quantity, nullableDate(fields.ExpiryDate), fields.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to create food item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, ownerID, id)
}

func (s *FoodStore) GetByID(ctx context.Context, ownerID, id int64) (*domain.FoodItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+foodColumns+` FROM food_inventory WHERE id = ? AND owner_id = ?
	`, id, ownerID)

	item, err := scanFood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("food item %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food item: %w", err)
	}
	return item, nil
}

// List returns the owner's items by expiry date ascending, items without an
// expiry date last.
func (s *FoodStore) List(ctx context.Context, ownerID int64) ([]*domain.FoodItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+foodColumns+` FROM food_inventory
		WHERE owner_id = ?
		ORDER BY expiry_date IS NULL, expiry_date ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list food items: %w", err)
	}
	defer closeRows(rows)

	items := make([]*domain.FoodItem, 0)
	for rows.Next() {
		item, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating food items: %w", err)
	}

	return items, nil
}

// ListNames returns the names of the owner's items in List order.
func (s *FoodStore) ListNames(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM food_inventory
		WHERE owner_id = ?
		ORDER BY expiry_date IS NULL, expiry_date ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list food names: %w", err)
	}
	defer closeRows(rows)

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan food name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating food names: %w", err)
	}

	return names, nil
}

// Update replaces all four editable fields.
func (s *FoodStore) Update(ctx context.Context, ownerID, id int64, fields domain.FoodFields) (*domain.FoodItem, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE food_inventory
		SET name = ?, quantity = ?, expiry_date = ?, category = ?, updated_at = datetime('now')
		WHERE id = ? AND owner_id = ?
	`, fields.Name, fields.Quantity, nullableDate(fields.ExpiryDate), fields.Category, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update food item: %w", err)
	}

	if err := expectOneRow(result, "food item", id); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, ownerID, id)
}

func (s *FoodStore) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM food_inventory WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete food item: %w", err)
	}

	return expectOneRow(result, "food item", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFood(sc scanner) (*domain.FoodItem, error) {
	item := &domain.FoodItem{}
	var expiry sql.NullString
	if err := sc.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Quantity, &expiry, &item.Category, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid && expiry.String != "" {
		t, err := time.Parse(domain.DateLayout, expiry.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored expiry date %q: %w", expiry.String, err)
		}
		item.ExpiryDate = &t
	}
	return item, nil
}

// nullableDate maps an empty date string to SQL NULL.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func expectOneRow(result sql.Result, what string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}

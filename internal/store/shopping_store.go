package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/eatai/internal/domain"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

func (s *ShoppingStore) Create(ctx context.Context, ownerID int64, name string) (*domain.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO shopping_items (owner_id, name) VALUES (?, ?)
	`, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create shopping item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, ownerID, id)
}

func (s *ShoppingStore) GetByID(ctx context.Context, ownerID, id int64) (*domain.ShoppingItem, error) {
	item := &domain.ShoppingItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, purchased, created_at FROM shopping_items WHERE id = ? AND owner_id = ?
	`, id, ownerID).Scan(&item.ID, &item.OwnerID, &item.Name, &item.Purchased, &item.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shopping item %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping item: %w", err)
	}

	return item, nil
}

// FindPendingByName returns the owner's unpurchased item whose name matches
// case-insensitively, or nil when there is none.
func (s *ShoppingStore) FindPendingByName(ctx context.Context, ownerID int64, name string) (*domain.ShoppingItem, error) {
	item := &domain.ShoppingItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, purchased, created_at FROM shopping_items
		WHERE owner_id = ? AND purchased = 0 AND LOWER(name) = LOWER(?)
		ORDER BY id LIMIT 1
	`, ownerID, name).Scan(&item.ID, &item.OwnerID, &item.Name, &item.Purchased, &item.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shopping item: %w", err)
	}

	return item, nil
}

// List returns pending items before purchased ones, newest first within each.
func (s *ShoppingStore) List(ctx context.Context, ownerID int64) ([]*domain.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, purchased, created_at FROM shopping_items
		WHERE owner_id = ?
		ORDER BY purchased ASC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	defer closeRows(rows)

	items := make([]*domain.ShoppingItem, 0)
	for rows.Next() {
		item := &domain.ShoppingItem{}
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Purchased, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shopping items: %w", err)
	}

	return items, nil
}

// Toggle flips the purchased flag.
func (s *ShoppingStore) Toggle(ctx context.Context, ownerID, id int64) (*domain.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE shopping_items SET purchased = NOT purchased WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle shopping item: %w", err)
	}

	if err := expectOneRow(result, "shopping item", id); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, ownerID, id)
}

func (s *ShoppingStore) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM shopping_items WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping item: %w", err)
	}

	return expectOneRow(result, "shopping item", id)
}

// DeletePurchased removes every purchased item and returns how many went.
func (s *ShoppingStore) DeletePurchased(ctx context.Context, ownerID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM shopping_items WHERE owner_id = ? AND purchased = 1
	`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear purchased items: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

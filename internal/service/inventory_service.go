package service

import (
	"context"
	"strings"
	"time"

	"github.com/vbonduro/eatai/internal/domain"
)

// foodRepository is the subset of store.FoodStore that InventoryService requires.
type foodRepository interface {
	Create(ctx context.Context, ownerID int64, fields domain.FoodFields) (*domain.FoodItem, error)
	GetByID(ctx context.Context, ownerID, id int64) (*domain.FoodItem, error)
	List(ctx context.Context, ownerID int64) ([]*domain.FoodItem, error)
	Update(ctx context.Context, ownerID, id int64, fields domain.FoodFields) (*domain.FoodItem, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type InventoryService struct {
	foods foodRepository
	now   func() time.Time
}

func NewInventoryService(foods foodRepository) *InventoryService {
	return &InventoryService{foods: foods, now: time.Now}
}

// Now is the clock expiry calculations are made against.
func (s *InventoryService) Now() time.Time {
	return s.now()
}

func (s *InventoryService) List(ctx context.Context, ownerID int64) ([]*domain.FoodItem, error) {
	return s.foods.List(ctx, ownerID)
}

// Expiring returns the owner's items that are expired or expire within
// domain.ExpiringSoonDays, soonest first.
func (s *InventoryService) Expiring(ctx context.Context, ownerID int64) ([]*domain.FoodItem, error) {
	items, err := s.foods.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiring := make([]*domain.FoodItem, 0)
	for _, item := range items {
		if item.ExpiringSoon(now) {
			expiring = append(expiring, item)
		}
	}
	return expiring, nil
}

func (s *InventoryService) Create(ctx context.Context, ownerID int64, fields domain.FoodFields) (*domain.FoodItem, error) {
	fields = normalizeFood(fields)
	if err := validateStruct(fields); err != nil {
		return nil, err
	}
	return s.foods.Create(ctx, ownerID, fields)
}

// Update replaces all editable fields of the item. Items of other owners are
// reported as domain.ErrNotFound.
func (s *InventoryService) Update(ctx context.Context, ownerID, id int64, fields domain.FoodFields) (*domain.FoodItem, error) {
	fields = normalizeFood(fields)
	if err := validateStruct(fields); err != nil {
		return nil, err
	}
	return s.foods.Update(ctx, ownerID, id, fields)
}

func (s *InventoryService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.foods.Delete(ctx, ownerID, id)
}

func normalizeFood(f domain.FoodFields) domain.FoodFields {
	return domain.FoodFields{
		Name:       strings.TrimSpace(f.Name),
		Quantity:   strings.TrimSpace(f.Quantity),
		ExpiryDate: strings.TrimSpace(f.ExpiryDate),
		Category:   strings.TrimSpace(f.Category),
	}
}

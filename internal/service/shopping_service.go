package service

import (
	"context"
	"strings"

	"github.com/vbonduro/eatai/internal/domain"
)

// shoppingRepository is the subset of store.ShoppingStore that ShoppingService requires.
type shoppingRepository interface {
	Create(ctx context.Context, ownerID int64, name string) (*domain.ShoppingItem, error)
	FindPendingByName(ctx context.Context, ownerID int64, name string) (*domain.ShoppingItem, error)
	List(ctx context.Context, ownerID int64) ([]*domain.ShoppingItem, error)
	Toggle(ctx context.Context, ownerID, id int64) (*domain.ShoppingItem, error)
	Delete(ctx context.Context, ownerID, id int64) error
	DeletePurchased(ctx context.Context, ownerID int64) (int64, error)
}

type shoppingInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

// ShoppingList is a snapshot of the owner's list with its counters.
type ShoppingList struct {
	Items     []*domain.ShoppingItem
	Pending   int
	Purchased int
}

type ShoppingService struct {
	items shoppingRepository
}

func NewShoppingService(items shoppingRepository) *ShoppingService {
	return &ShoppingService{items: items}
}

func (s *ShoppingService) List(ctx context.Context, ownerID int64) (*ShoppingList, error) {
	items, err := s.items.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	list := &ShoppingList{Items: items}
	for _, item := range items {
		if item.Purchased {
			list.Purchased++
		} else {
			list.Pending++
		}
	}
	return list, nil
}

func (s *ShoppingService) Add(ctx context.Context, ownerID int64, name string) (*domain.ShoppingItem, error) {
	in := shoppingInput{Name: strings.TrimSpace(name)}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return s.items.Create(ctx, ownerID, in.Name)
}

// QuickAdd adds name unless a pending item with the same name (ignoring case)
// is already listed, in which case that item is returned with added false.
func (s *ShoppingService) QuickAdd(ctx context.Context, ownerID int64, name string) (item *domain.ShoppingItem, added bool, err error) {
	in := shoppingInput{Name: strings.TrimSpace(name)}
	if err := validateStruct(in); err != nil {
		return nil, false, err
	}

	existing, err := s.items.FindPendingByName(ctx, ownerID, in.Name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	item, err = s.items.Create(ctx, ownerID, in.Name)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (s *ShoppingService) Toggle(ctx context.Context, ownerID, id int64) (*domain.ShoppingItem, error) {
	return s.items.Toggle(ctx, ownerID, id)
}

func (s *ShoppingService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.items.Delete(ctx, ownerID, id)
}

func (s *ShoppingService) ClearPurchased(ctx context.Context, ownerID int64) (int64, error) {
	return s.items.DeletePurchased(ctx, ownerID)
}

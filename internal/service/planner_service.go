package service

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/vbonduro/eatai/internal/domain"
)

// mealPlanRepository is the subset of store.MealPlanStore that PlannerService requires.
type mealPlanRepository interface {
	Upsert(ctx context.Context, ownerID int64, day, mealType, recipe, at string) (*domain.MealPlan, error)
	List(ctx context.Context, ownerID int64) ([]*domain.MealPlan, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type quickAdder interface {
	QuickAdd(ctx context.Context, ownerID int64, name string) (*domain.ShoppingItem, bool, error)
}

// WeekSlots is the number of day/meal slots in a planner week.
var WeekSlots = len(domain.WeekDays) * len(domain.MealTypes)

type PlannerSummary struct {
	Planned           int
	TotalSlots        int
	CompletionPercent int
	Today             string
	TodayMeals        []*domain.MealPlan
}

type PlannerService struct {
	plans    mealPlanRepository
	shopping quickAdder
	now      func() time.Time
}

func NewPlannerService(plans mealPlanRepository, shopping quickAdder) *PlannerService {
	return &PlannerService{plans: plans, shopping: shopping, now: time.Now}
}

// List returns the owner's plans in week order, Monday first, meals in
// Breakfast, Lunch, Dinner, Snack order.
func (s *PlannerService) List(ctx context.Context, ownerID int64) ([]*domain.MealPlan, error) {
	plans, err := s.plans.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(plans, func(a, b *domain.MealPlan) int {
		if d := slices.Index(domain.WeekDays, a.Day) - slices.Index(domain.WeekDays, b.Day); d != 0 {
			return d
		}
		return slices.Index(domain.MealTypes, a.MealType) - slices.Index(domain.MealTypes, b.MealType)
	})
	return plans, nil
}

// Set fills one slot, replacing what was there.
func (s *PlannerService) Set(ctx context.Context, ownerID int64, slot domain.MealSlot) (*domain.MealPlan, error) {
	slot.Recipe = strings.TrimSpace(slot.Recipe)
	slot.Time = strings.TrimSpace(slot.Time)
	if err := validateStruct(slot); err != nil {
		return nil, err
	}
	return s.plans.Upsert(ctx, ownerID, slot.Day, slot.MealType, slot.Recipe, slot.Time)
}

func (s *PlannerService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.plans.Delete(ctx, ownerID, id)
}

func (s *PlannerService) Summary(ctx context.Context, ownerID int64) (*PlannerSummary, error) {
	plans, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := s.now().Weekday().String()
	summary := &PlannerSummary{
		Planned:           len(plans),
		TotalSlots:        WeekSlots,
		CompletionPercent: int(math.Round(float64(len(plans)) / float64(WeekSlots) * 100)),
		Today:             today,
		TodayMeals:        make([]*domain.MealPlan, 0),
	}
	for _, p := range plans {
		if p.Day == today {
			summary.TodayMeals = append(summary.TodayMeals, p)
		}
	}
	return summary, nil
}

// AddIngredientToShopping quick-adds a recipe ingredient, dropping a trailing
// " (quantity)" annotation first.
func (s *PlannerService) AddIngredientToShopping(ctx context.Context, ownerID int64, ingredient string) (*domain.ShoppingItem, bool, error) {
	name, _, _ := strings.Cut(ingredient, " (")
	return s.shopping.QuickAdd(ctx, ownerID, name)
}

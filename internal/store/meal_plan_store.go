package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/eatai/internal/domain"
)

type MealPlanStore struct {
	db *sql.DB
}

func NewMealPlanStore(db *sql.DB) *MealPlanStore {
	return &MealPlanStore{db: db}
}

// Upsert fills the owner's day/meal slot, replacing whatever was planned there.
func (s *MealPlanStore) Upsert(ctx context.Context, ownerID int64, day, mealType, recipe, at string) (*domain.MealPlan, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_plans (owner_id, day, meal_type, recipe, time) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, day, meal_type) DO UPDATE SET recipe = excluded.recipe, time = excluded.time
	`, ownerID, day, mealType, recipe, at)
	if err != nil {
		return nil, fmt.Errorf("failed to save meal plan: %w", err)
	}

	plan := &domain.MealPlan{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, day, meal_type, recipe, time FROM meal_plans
		WHERE owner_id = ? AND day = ? AND meal_type = ?
	`, ownerID, day, mealType).Scan(&plan.ID, &plan.OwnerID, &plan.Day, &plan.MealType, &plan.Recipe, &plan.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved meal plan: %w", err)
	}
	return plan, nil
}

// List returns the owner's plans in insertion order; callers sort by week.
func (s *MealPlanStore) List(ctx context.Context, ownerID int64) ([]*domain.MealPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, day, meal_type, recipe, time FROM meal_plans
		WHERE owner_id = ? ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer closeRows(rows)

	plans := make([]*domain.MealPlan, 0)
	for rows.Next() {
		plan := &domain.MealPlan{}
		if err := rows.Scan(&plan.ID, &plan.OwnerID, &plan.Day, &plan.MealType, &plan.Recipe, &plan.Time); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meal plans: %w", err)
	}

	return plans, nil
}

func (s *MealPlanStore) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM meal_plans WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}

	return expectOneRow(result, "meal plan", id)
}

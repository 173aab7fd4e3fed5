package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type FoodItem struct {
	ID         int64
	OwnerID    int64
	Name       string
	Quantity   string
	ExpiryDate *time.Time
	Category   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FoodFields holds the editable fields of a FoodItem as received from a
// caller. ExpiryDate is YYYY-MM-DD text; empty means no expiry date.
type FoodFields struct {
	Name       string `json:"name" validate:"required,max=200"`
	Quantity   string `json:"quantity" validate:"required,max=100"`
	ExpiryDate string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Category   string `json:"category" validate:"max=100"`
}

type ShoppingItem struct {
	ID        int64
	OwnerID   int64
	Name      string
	Purchased bool
	CreatedAt time.Time
}

// Week days and meal types accepted by the planner, in display order.
var (
	WeekDays  = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	MealTypes = []string{"Breakfast", "Lunch", "Dinner", "Snack"}
)

type MealPlan struct {
	ID       int64
	OwnerID  int64
	Day      string
	MealType string
	Recipe   string
	Time     string
}

// MealSlot is a planner write: what to eat in one day/meal slot.
type MealSlot struct {
	Day      string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	MealType string `json:"meal_type" validate:"required,oneof=Breakfast Lunch Dinner Snack"`
	Recipe   string `json:"recipe" validate:"required,max=200"`
	Time     string `json:"time" validate:"omitempty,datetime=15:04"`
}

type Difficulty string

const (
	DifficultyEasy    Difficulty = "Easy"
	DifficultyMedium  Difficulty = "Medium"
	DifficultyHard    Difficulty = "Hard"
	DifficultyUnknown Difficulty = "Unknown"
)

// ParseDifficulty matches s case-insensitively against Easy, Medium and Hard.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(DifficultyEasy)):
		return DifficultyEasy, true
	case strings.EqualFold(s, string(DifficultyMedium)):
		return DifficultyMedium, true
	case strings.EqualFold(s, string(DifficultyHard)):
		return DifficultyHard, true
	default:
		return DifficultyUnknown, false
	}
}

// RecipeRequest carries the caller's preferences for one generation.
type RecipeRequest struct {
	Style      string     `json:"style" validate:"max=100"`
	Allergies  string     `json:"allergies" validate:"max=200"`
	Servings   *int       `json:"servings" validate:"omitempty,min=1,max=100"`
	CookTime   string     `json:"cookTime" validate:"max=50"`
	Difficulty Difficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
}

type Recipe struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Ingredients  []string   `json:"ingredients"`
	Instructions []string   `json:"instructions"`
	CookTime     string     `json:"cookTime"`
	Servings     int        `json:"servings"`
	Difficulty   Difficulty `json:"difficulty"`
	Image        string     `json:"image,omitempty"`
}

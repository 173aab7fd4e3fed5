package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/vbonduro/eatai/internal/domain"
)

// wireRecipe mirrors the JSON the model is told to produce. Pointers
// distinguish absent fields from empty ones.
type wireRecipe struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookTime     *string  `json:"cookTime"`
	Servings     *float64 `json:"servings"`
	Difficulty   any      `json:"difficulty"`
}

// ParseRecipes turns a model reply into recipes, or an error wrapping
// domain.ErrParse. The reply must be a non-empty JSON array, optionally
// wrapped in one markdown code fence. A difficulty outside Easy, Medium and
// Hard becomes Unknown for that recipe only.
func ParseRecipes(reply string) ([]domain.Recipe, error) {
	payload := stripCodeFence(reply)
	if !strings.HasPrefix(payload, "[") {
		return nil, parseErr("reply is not a JSON array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, parseErr("invalid JSON: %v", err)
	}
	if len(raw) == 0 {
		return nil, parseErr("reply contains no recipes")
	}

	recipes := make([]domain.Recipe, 0, len(raw))
	for i, elem := range raw {
		recipe, err := parseRecipe(elem)
		if err != nil {
			return nil, parseErr("recipe %d: %v", i, err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func parseRecipe(elem json.RawMessage) (domain.Recipe, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(elem), []byte("{")) {
		return domain.Recipe{}, fmt.Errorf("not an object")
	}

	var w wireRecipe
	if err := json.Unmarshal(elem, &w); err != nil {
		return domain.Recipe{}, err
	}

	if w.Name == nil || strings.TrimSpace(*w.Name) == "" {
		return domain.Recipe{}, fmt.Errorf("missing name")
	}
	if w.Description == nil {
		return domain.Recipe{}, fmt.Errorf("missing description")
	}
	if w.CookTime == nil {
		return domain.Recipe{}, fmt.Errorf("missing cookTime")
	}
	if err := checkSteps("ingredients", w.Ingredients); err != nil {
		return domain.Recipe{}, err
	}
	if err := checkSteps("instructions", w.Instructions); err != nil {
		return domain.Recipe{}, err
	}
	if w.Servings == nil {
		return domain.Recipe{}, fmt.Errorf("missing servings")
	}
	servings := *w.Servings
	if servings <= 0 || servings != math.Trunc(servings) || servings > math.MaxInt32 {
		return domain.Recipe{}, fmt.Errorf("servings must be a positive integer, got %v", servings)
	}

	difficulty := domain.DifficultyUnknown
	if s, ok := w.Difficulty.(string); ok {
		difficulty, _ = domain.ParseDifficulty(s)
	}

	return domain.Recipe{
		Name:         strings.TrimSpace(*w.Name),
		Description:  *w.Description,
		Ingredients:  w.Ingredients,
		Instructions: w.Instructions,
		CookTime:     *w.CookTime,
		Servings:     int(servings),
		Difficulty:   difficulty,
	}, nil
}

func checkSteps(field string, steps []string) error {
	if len(steps) == 0 {
		return fmt.Errorf("%s must be a non-empty list", field)
	}
	for j, s := range steps {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s[%d] is blank", field, j)
		}
	}
	return nil
}

// stripCodeFence removes one surrounding ``` fence, with or without a
// language tag.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if idx := strings.Index(inner, "\n"); idx != -1 {
		if tag := strings.TrimSpace(inner[:idx]); !strings.ContainsAny(tag, "[{") {
			inner = inner[idx+1:]
		}
	}
	return strings.TrimSpace(inner)
}

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrParse, fmt.Sprintf(format, args...))
}

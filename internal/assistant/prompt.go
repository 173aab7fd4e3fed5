package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vbonduro/eatai/internal/domain"
)

// NoIngredients stands in for the ingredient list when the inventory is empty.
const NoIngredients = "(no ingredients known)"

const recipePromptTemplate = `You are a helpful culinary assistant.

Given:
- Ingredients: %s
- Style: %s
- Allergies: %s
- Preferred servings: %s
- Preferred cook time: %s
- Preferred difficulty: %s

Generate 2-3 recipes. Return as valid JSON array using this format:
[
  {
    "name": "string",
    "description": "string",
    "ingredients": ["ingredient 1", "ingredient 2", ...],
    "instructions": ["step 1", "step 2", ...],
    "cookTime": "e.g. 25 minutes",
    "servings": number,
    "difficulty": "Easy" | "Medium" | "Hard"
  }
]

Only return raw JSON. No markdown, no explanation.`

// BuildRecipePrompt composes the single user turn of a generation session.
// Absent preferences are spelled out as "any" or "none".
func BuildRecipePrompt(ingredients []string, req domain.RecipeRequest) string {
	list := NoIngredients
	if len(ingredients) > 0 {
		list = strings.Join(ingredients, ", ")
	}

	servings := "any"
	if req.Servings != nil {
		servings = strconv.Itoa(*req.Servings)
	}

	return fmt.Sprintf(recipePromptTemplate,
		list,
		orDefault(req.Style, "any"),
		orDefault(req.Allergies, "none"),
		servings,
		orDefault(req.CookTime, "any"),
		orDefault(string(req.Difficulty), "any"),
	)
}

// ImagePrompt describes the finished dish for the illustrator. A style of
// "any" adds nothing.
func ImagePrompt(recipeName, style string) string {
	style = strings.TrimSpace(style)
	if style == "" || strings.EqualFold(style, "any") {
		return fmt.Sprintf("Top-down view of a finished dish called %q. High quality food photography.", recipeName)
	}
	return fmt.Sprintf("Top-down view of a finished dish called %q. %s style. High quality food photography.", recipeName, style)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

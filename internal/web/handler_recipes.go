package web

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/eatai/internal/domain"
)

// recipeRequestBody accepts form-style input: servings may arrive as a
// number or as numeric text, and empty values mean "no preference".
type recipeRequestBody struct {
	Style      string `json:"style"`
	Allergies  string `json:"allergies"`
	Servings   any    `json:"servings"`
	CookTime   string `json:"cookTime"`
	Difficulty string `json:"difficulty"`
}

func (b recipeRequestBody) toRequest() (domain.RecipeRequest, error) {
	req := domain.RecipeRequest{
		Style:     strings.TrimSpace(b.Style),
		Allergies: strings.TrimSpace(b.Allergies),
		CookTime:  strings.TrimSpace(b.CookTime),
	}

	switch v := b.Servings.(type) {
	case nil:
	case float64:
		if v != math.Trunc(v) {
			return req, domain.NewValidationError("servings", "must be a whole number")
		}
		n := int(v)
		req.Servings = &n
	case string:
		if v = strings.TrimSpace(v); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, domain.NewValidationError("servings", "must be a whole number")
			}
			req.Servings = &n
		}
	default:
		return req, domain.NewValidationError("servings", "must be a whole number")
	}

	if d := strings.TrimSpace(b.Difficulty); d != "" && !strings.EqualFold(d, "any") {
		parsed, ok := domain.ParseDifficulty(d)
		if !ok {
			return req, domain.NewValidationError("difficulty", "must be one of Easy, Medium, Hard")
		}
		req.Difficulty = parsed
	}
	return req, nil
}

func (s *Server) handleGenerateRecipes(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.limiter.Allow(owner) {
		s.writeError(w, r, errRateLimited)
		return
	}

	var body recipeRequestBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	req, err := body.toRequest()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recipes, err := s.svc.Recipes.Generate(r.Context(), owner, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, recipes)
}

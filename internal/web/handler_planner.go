package web

import (
	"net/http"

	"github.com/vbonduro/eatai/internal/domain"
)

type mealPlanResponse struct {
	ID       int64  `json:"id"`
	Day      string `json:"day"`
	MealType string `json:"meal_type"`
	Recipe   string `json:"recipe"`
	Time     string `json:"time,omitempty"`
}

func newMealPlanResponses(plans []*domain.MealPlan) []mealPlanResponse {
	out := make([]mealPlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, mealPlanResponse{ID: p.ID, Day: p.Day, MealType: p.MealType, Recipe: p.Recipe, Time: p.Time})
	}
	return out
}

type plannerSummaryResponse struct {
	Planned           int                `json:"planned"`
	TotalSlots        int                `json:"total_slots"`
	CompletionPercent int                `json:"completion_percent"`
	Today             string             `json:"today"`
	TodayMeals        []mealPlanResponse `json:"today_meals"`
}

type ingredientRequest struct {
	Ingredient string `json:"ingredient"`
}

func (s *Server) handleListMealPlans(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	plans, err := s.svc.Planner.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newMealPlanResponses(plans))
}

func (s *Server) handleSetMealPlan(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var slot domain.MealSlot
	if err := decodeJSON(r, &slot); err != nil {
		s.writeError(w, r, err)
		return
	}

	plan, err := s.svc.Planner.Set(r.Context(), owner, slot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newMealPlanResponses([]*domain.MealPlan{plan})[0])
}

func (s *Server) handleDeleteMealPlan(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Planner.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, deletedResponse(id))
}

func (s *Server) handleMealPlanSummary(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.svc.Planner.Summary(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, plannerSummaryResponse{
		Planned:           summary.Planned,
		TotalSlots:        summary.TotalSlots,
		CompletionPercent: summary.CompletionPercent,
		Today:             summary.Today,
		TodayMeals:        newMealPlanResponses(summary.TodayMeals),
	})
}

func (s *Server) handleIngredientToShopping(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body ingredientRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, added, err := s.svc.Planner.AddIngredientToShopping(r.Context(), owner, body.Ingredient)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	s.writeJSON(w, r, status, quickAddResponse{Item: newShoppingItemResponse(item), Added: added})
}

package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/eatai/internal/domain"
)

type foodResponse struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Quantity        string              `json:"quantity"`
	ExpiryDate      *string             `json:"expiry_date"`
	Category        string              `json:"category"`
	ExpiryStatus    domain.ExpiryStatus `json:"expiry_status"`
	DaysUntilExpiry *int                `json:"days_until_expiry"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newFoodResponse(item *domain.FoodItem, now time.Time) foodResponse {
	resp := foodResponse{
		ID:           item.ID,
		Name:         item.Name,
		Quantity:     item.Quantity,
		Category:     item.Category,
		ExpiryStatus: item.ExpiryStatus(now),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if item.ExpiryDate != nil {
		date := item.ExpiryDate.Format(domain.DateLayout)
		resp.ExpiryDate = &date
	}
	if days, ok := item.DaysUntilExpiry(now); ok {
		resp.DaysUntilExpiry = &days
	}
	return resp
}

func (s *Server) foodList(items []*domain.FoodItem) []foodResponse {
	now := s.svc.Inventory.Now()
	out := make([]foodResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newFoodResponse(item, now))
	}
	return out
}

func (s *Server) handleListFood(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.svc.Inventory.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.foodList(items))
}

func (s *Server) handleExpiringFood(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.svc.Inventory.Expiring(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.foodList(items))
}

func (s *Server) handleCreateFood(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var fields domain.FoodFields
	if err := decodeJSON(r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.svc.Inventory.Create(r.Context(), owner, fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, newFoodResponse(item, s.svc.Inventory.Now()))
}

func (s *Server) handleUpdateFood(w http.ResponseWriter, r *http.Request) {
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

	var fields domain.FoodFields
	if err := decodeJSON(r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.svc.Inventory.Update(r.Context(), owner, id, fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newFoodResponse(item, s.svc.Inventory.Now()))
}

func (s *Server) handleDeleteFood(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Inventory.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, deletedResponse(id))
}

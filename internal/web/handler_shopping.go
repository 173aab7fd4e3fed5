package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/eatai/internal/domain"
)

type shoppingItemResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
}

func newShoppingItemResponse(item *domain.ShoppingItem) shoppingItemResponse {
	return shoppingItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Purchased: item.Purchased,
		CreatedAt: item.CreatedAt,
	}
}

type shoppingListResponse struct {
	Items     []shoppingItemResponse `json:"items"`
	Pending   int                    `json:"pending"`
	Purchased int                    `json:"purchased"`
}

type quickAddResponse struct {
	Item  shoppingItemResponse `json:"item"`
	Added bool                 `json:"added"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListShopping(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.svc.Shopping.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := shoppingListResponse{
		Items:     make([]shoppingItemResponse, 0, len(list.Items)),
		Pending:   list.Pending,
		Purchased: list.Purchased,
	}
	for _, item := range list.Items {
		resp.Items = append(resp.Items, newShoppingItemResponse(item))
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleAddShopping(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body nameRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.svc.Shopping.Add(r.Context(), owner, body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, newShoppingItemResponse(item))
}

func (s *Server) handleQuickAddShopping(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body nameRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, added, err := s.svc.Shopping.QuickAdd(r.Context(), owner, body.Name)
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

func (s *Server) handleToggleShopping(w http.ResponseWriter, r *http.Request) {
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

	item, err := s.svc.Shopping.Toggle(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newShoppingItemResponse(item))
}

func (s *Server) handleDeleteShopping(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Shopping.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, deletedResponse(id))
}

func (s *Server) handleClearPurchased(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.svc.Shopping.ClearPurchased(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]int64{"deleted": n})
}

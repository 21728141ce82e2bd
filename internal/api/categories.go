package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/treasurer/internal/ledger"
)

type categoryRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"targetAmount"`
}

func (c categoryRequest) fields() ledger.CategoryFields {
	return ledger.CategoryFields{
		Name:         c.Name,
		Description:  c.Description,
		TargetAmount: c.TargetAmount,
	}
}

type activeCategoryRequest struct {
	CategoryID string `json:"categoryId"`
}

// AddCategory handles POST /api/categories.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "AddCategory", err)
		return
	}
	h.update(w, r, "AddCategory", http.StatusCreated, func(l *ledger.Ledger) (any, error) {
		return l.AddCategory(req.fields())
	})
}

// EditCategory handles PUT /api/categories/{id}.
func (h *Handler) EditCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "EditCategory", err)
		return
	}
	id := chi.URLParam(r, "id")
	h.update(w, r, "EditCategory", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		return l.EditCategory(id, req.fields())
	})
}

// DeleteCategory handles DELETE /api/categories/{id}. The response carries
// the active category after deletion.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.update(w, r, "DeleteCategory", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		if err := l.DeleteCategory(id); err != nil {
			return nil, err
		}
		return activeCategoryRequest{CategoryID: l.ActiveCategory()}, nil
	})
}

// SetActiveCategory handles PUT /api/active-category.
func (h *Handler) SetActiveCategory(w http.ResponseWriter, r *http.Request) {
	var req activeCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "SetActiveCategory", err)
		return
	}
	h.update(w, r, "SetActiveCategory", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		if err := l.SetActiveCategory(req.CategoryID); err != nil {
			return nil, err
		}
		return activeCategoryRequest{CategoryID: l.ActiveCategory()}, nil
	})
}

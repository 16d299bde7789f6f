package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/adiwarna/kasir-pos/internal/domain/category"
)

type categoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=3,max=30"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name, ProductCount: c.ProductCount}
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		respondBindError(w, r, err)
		return
	}

	c := &category.Category{ID: uuid.New().String(), Name: req.Name}
	if err := h.categories.Create(r.Context(), c); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, categoryResponse{ID: c.ID, Name: c.Name})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		respondBindError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := h.categories.Update(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "category not found")
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, categoryResponse{ID: id, Name: req.Name})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.categories.Delete(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, category.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "category not found")
	case errors.Is(err, category.ErrInUse):
		respondError(w, r, http.StatusConflict, "category still has products")
	default:
		respondInternal(w, r, err)
	}
}

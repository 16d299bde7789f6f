package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adiwarna/kasir-pos/internal/domain/product"
)

type productCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Category productCategory `json:"category"`
}

type productRequest struct {
	Name       string `json:"name" validate:"required,min=3,max=30"`
	Price      int64  `json:"price" validate:"required,gte=1000"`
	CategoryID string `json:"categoryId" validate:"required"`
	ImageURL   string `json:"imageUrl" validate:"required,url"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Category: productCategory{ID: p.CategoryID, Name: p.CategoryName},
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		respondBindError(w, r, err)
		return
	}

	p := &product.Product{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Price:      decimal.NewFromInt(req.Price),
		ImageURL:   req.ImageURL,
		CategoryID: req.CategoryID,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrCategoryMissing) {
			respondError(w, r, http.StatusUnprocessableEntity, "category does not exist")
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		respondBindError(w, r, err)
		return
	}

	p := &product.Product{
		ID:         r.PathValue("id"),
		Name:       req.Name,
		Price:      decimal.NewFromInt(req.Price),
		ImageURL:   req.ImageURL,
		CategoryID: req.CategoryID,
	}
	err := h.products.Update(r.Context(), p)
	switch {
	case err == nil:
		respondJSON(w, r, http.StatusOK, toProductResponse(*p))
	case errors.Is(err, product.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "product not found")
	case errors.Is(err, product.ErrCategoryMissing):
		respondError(w, r, http.StatusUnprocessableEntity, "category does not exist")
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.Delete(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, product.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "product not found")
	default:
		respondInternal(w, r, err)
	}
}

package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiwarna/kasir-pos/internal/domain/category"
	"github.com/adiwarna/kasir-pos/internal/domain/product"
)

func TestListCategories(t *testing.T) {
	deps := defaultDeps()
	deps.categories.categories = []category.Category{
		{ID: "c1", Name: "Minuman", ProductCount: 3},
		{ID: "c2", Name: "Makanan", ProductCount: 0},
	}
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodGet, "/api/categories", "", authed(nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[[]categoryResponse](t, resp)
	require.Len(t, body, 2)
	assert.Equal(t, "Minuman", body[0].Name)
	assert.Equal(t, 3, body[0].ProductCount)
}

func TestCreateCategory_ShortNameRejected(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/categories",
		`{"name":"Ab"}`, authed(nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateCategory_OK(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/categories",
		`{"name":"Minuman"}`, authed(nil))

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody[categoryResponse](t, resp)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "Minuman", body.Name)
}

func TestDeleteCategory_InUse(t *testing.T) {
	deps := defaultDeps()
	deps.categories.deleteErr = category.ErrInUse
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodDelete, "/api/categories/c1", "", authed(nil))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateProduct_PriceBelowMinimum(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/products",
		`{"name":"Kopi Susu","price":999,"categoryId":"c1","imageUrl":"https://cdn.example.com/kopi.jpeg"}`,
		authed(nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateProduct_BadImageURL(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/products",
		`{"name":"Kopi Susu","price":15000,"categoryId":"c1","imageUrl":"not-a-url"}`,
		authed(nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateProduct_MissingCategory(t *testing.T) {
	deps := defaultDeps()
	deps.products.createErr = product.ErrCategoryMissing
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodPost, "/api/products",
		`{"name":"Kopi Susu","price":15000,"categoryId":"ghost","imageUrl":"https://cdn.example.com/kopi.jpeg"}`,
		authed(nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateProduct_OK(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/products",
		`{"name":"Kopi Susu","price":15000,"categoryId":"c1","imageUrl":"https://cdn.example.com/kopi.jpeg"}`,
		authed(nil))

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody[productResponse](t, resp)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "Kopi Susu", body.Name)
	assert.Equal(t, "c1", body.Category.ID)
}

func TestSecurity_BadKey(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodGet, "/api/products", "",
		map[string]string{"api_key": "wrong-key"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestListCategories(t *testing.T) {
	resp := doGet(t, "/api/categories")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	categories := decodeJSON[[]categoryResponse](t, resp)
	if len(categories) < 3 {
		t.Fatalf("expected at least 3 seeded categories, got %d", len(categories))
	}

	byName := make(map[string]categoryResponse)
	for _, c := range categories {
		byName[c.Name] = c
	}
	makanan, ok := byName["Makanan"]
	if !ok {
		t.Fatal("seeded category Makanan not found")
	}
	if makanan.ProductCount < 1 {
		t.Errorf("Makanan productCount: got %d, want >= 1", makanan.ProductCount)
	}
}

func TestListProducts_NoAuth(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/products", nil, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	byID := make(map[string]productResponse)
	for _, p := range products {
		byID[p.ID] = p
	}

	nasi, ok := byID["prod-nasi-goreng"]
	if !ok {
		t.Fatal("seeded product prod-nasi-goreng not found")
	}
	if nasi.Price != 25000 {
		t.Errorf("price: got %v, want 25000", nasi.Price)
	}
	if nasi.Category.Name != "Makanan" {
		t.Errorf("category name: got %q, want Makanan", nasi.Category.Name)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	created := func() categoryResponse {
		resp := doPost(t, "/api/categories", map[string]string{"name": "Paket Hemat"})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d", resp.StatusCode)
		}
		return decodeJSON[categoryResponse](t, resp)
	}()

	if created.ID == "" {
		t.Fatal("created category has empty id")
	}

	resp := doPut(t, "/api/categories/"+created.ID, map[string]string{"name": "Paket Komplit"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doDelete(t, "/api/categories/"+created.ID)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doDelete(t, "/api/categories/"+created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete again: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateCategory_NameTooShort(t *testing.T) {
	resp := doPost(t, "/api/categories", map[string]string{"name": "ab"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if len(body.Fields) == 0 {
		t.Error("expected field-level validation errors")
	}
}

func TestDeleteCategory_InUse(t *testing.T) {
	resp := doDelete(t, "/api/categories/cat-makanan")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestProductLifecycle(t *testing.T) {
	created := func() productResponse {
		resp := doPost(t, "/api/products", map[string]any{
			"name":       "Klepon Isi 5",
			"price":      8000,
			"categoryId": "cat-snack",
			"imageUrl":   "https://cdn.example.com/images/klepon.jpg",
		})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d", resp.StatusCode)
		}
		return decodeJSON[productResponse](t, resp)
	}()

	if created.ID == "" {
		t.Fatal("created product has empty id")
	}
	if created.Price != 8000 {
		t.Errorf("price: got %v, want 8000", created.Price)
	}

	resp := doPut(t, "/api/products/"+created.ID, map[string]any{
		"name":       "Klepon Isi 10",
		"price":      15000,
		"categoryId": "cat-snack",
		"imageUrl":   "https://cdn.example.com/images/klepon.jpg",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[productResponse](t, resp)
	resp.Body.Close()
	if updated.Price != 15000 {
		t.Errorf("updated price: got %v, want 15000", updated.Price)
	}

	resp = doDelete(t, "/api/products/"+created.ID)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateProduct_PriceBelowMinimum(t *testing.T) {
	resp := doPost(t, "/api/products", map[string]any{
		"name":       "Permen Satuan",
		"price":      500,
		"categoryId": "cat-snack",
		"imageUrl":   "https://cdn.example.com/images/permen.jpg",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	resp := doPost(t, "/api/products", map[string]any{
		"name":       "Produk Nyasar",
		"price":      9000,
		"categoryId": uuid.NewString(),
		"imageUrl":   "https://cdn.example.com/images/nyasar.jpg",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

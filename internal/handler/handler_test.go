package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/adiwarna/kasir-pos/internal/domain/auth"
	"github.com/adiwarna/kasir-pos/internal/domain/category"
	"github.com/adiwarna/kasir-pos/internal/domain/order"
	"github.com/adiwarna/kasir-pos/internal/domain/payment"
	"github.com/adiwarna/kasir-pos/internal/domain/product"
	"github.com/adiwarna/kasir-pos/internal/repository"
)

const (
	testAPIKey        = "kasir_test_key"
	testPepper        = "pepper-123"
	testCallbackToken = "cb-token-xyz"
)

// --- Mock implementations ---

type mockCategoryRepo struct {
	categories []category.Category
	createErr  error
	updateErr  error
	deleteErr  error
}

func (m *mockCategoryRepo) List(_ context.Context) ([]category.Category, error) {
	return m.categories, nil
}
func (m *mockCategoryRepo) Create(_ context.Context, _ *category.Category) error {
	return m.createErr
}
func (m *mockCategoryRepo) Update(_ context.Context, _, _ string) error { return m.updateErr }
func (m *mockCategoryRepo) Delete(_ context.Context, _ string) error    { return m.deleteErr }

type mockProductRepo struct {
	byID      map[string]product.Product
	createErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error { return m.createErr }
func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Delete(_ context.Context, _ string) error           { return nil }

// mockOrderRepo keeps orders in a map and honors the guarded transitions.
type mockOrderRepo struct {
	orders map[string]*order.Order

	markPaidErr   error
	markPaidCalls int
}

func newMockOrderRepo(orders ...*order.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[string]*order.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, o *order.Order, _ []order.Item) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) SetPaymentReference(_ context.Context, id, externalID, methodID string) error {
	if o, ok := m.orders[id]; ok {
		o.ExternalTransactionID = externalID
		o.PaymentMethodID = methodID
	}
	return nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	m.markPaidCalls++
	if m.markPaidErr != nil {
		return false, m.markPaidErr
	}
	o, ok := m.orders[id]
	if !ok || o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusProcessing
	o.PaidAt = &paidAt
	return true, nil
}

func (m *mockOrderRepo) MarkFailed(_ context.Context, id string) error {
	if o, ok := m.orders[id]; ok && o.Status == order.StatusPending {
		o.Status = order.StatusFailed
	}
	return nil
}

type mockGateway struct {
	qr  *payment.QRPayment
	err error
}

func (m *mockGateway) CreateQRPayment(_ context.Context, _ payment.CreateQRRequest) (*payment.QRPayment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.qr, nil
}

type mockAPIKeyRepo struct {
	hash string
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKey, error) {
	if hash != m.hash {
		return nil, errors.New("api key not found")
	}
	return &auth.APIKey{ID: "k1", KeyHash: m.hash, Name: "test"}, nil
}

// --- Helpers ---

type testDeps struct {
	categories *mockCategoryRepo
	products   *mockProductRepo
	orders     *mockOrderRepo
	gateway    *mockGateway
}

func defaultDeps() *testDeps {
	return &testDeps{
		categories: &mockCategoryRepo{},
		products:   &mockProductRepo{byID: map[string]product.Product{}},
		orders:     newMockOrderRepo(),
		gateway: &mockGateway{qr: &payment.QRPayment{
			ID:              "pr-1",
			PaymentMethodID: "pm-1",
			QRString:        "0002010102...",
		}},
	}
}

func keyHash(key string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestServer(t *testing.T, deps *testDeps) *httptest.Server {
	t.Helper()

	svc := order.NewService(deps.products, deps.orders, deps.gateway)
	h := New(
		Config{APIKeyPepper: []byte(testPepper), CallbackToken: testCallbackToken},
		deps.categories,
		deps.products,
		deps.orders,
		svc,
		&mockAPIKeyRepo{hash: keyHash(testAPIKey)},
	)

	mux := http.NewServeMux()
	h.Routes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func authed(headers map[string]string) map[string]string {
	out := map[string]string{"api_key": testAPIKey}
	for k, v := range headers {
		out[k] = v
	}
	return out
}

func pendingOrder(id string) *order.Order {
	return &order.Order{
		ID:         id,
		SubTotal:   decimal.NewFromInt(20000),
		Tax:        decimal.NewFromInt(2000),
		GrandTotal: decimal.NewFromInt(22000),
		Status:     order.StatusPending,
		CreatedAt:  time.Now(),
	}
}

package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiwarna/kasir-pos/internal/domain/order"
)

func webhookBody(referenceID, status string) string {
	return fmt.Sprintf(`{
		"event": "payment.succeeded",
		"data": {
			"id": "ewc_1",
			"amount": 22000,
			"payment_request_id": "pr-1",
			"reference_id": %q,
			"status": %q
		}
	}`, referenceID, status)
}

func TestWebhook_WrongMethod(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodGet, "/api/payment/webhook", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebhook_MissingToken(t *testing.T) {
	deps := defaultDeps()
	deps.orders = newMockOrderRepo(pendingOrder("order-1"))
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("order-1", "SUCCEEDED"), nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	o, _ := deps.orders.GetByID(t.Context(), "order-1")
	assert.Equal(t, order.StatusPending, o.Status, "no mutation on bad token")
}

func TestWebhook_UnknownOrder(t *testing.T) {
	deps := defaultDeps()
	deps.orders = newMockOrderRepo(pendingOrder("order-1"))
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("nonexistent", "SUCCEEDED"),
		map[string]string{"x-callback-token": testCallbackToken})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	o, _ := deps.orders.GetByID(t.Context(), "order-1")
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Nil(t, o.PaidAt)
}

func TestWebhook_Succeeded(t *testing.T) {
	deps := defaultDeps()
	deps.orders = newMockOrderRepo(pendingOrder("order-1"))
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("order-1", "SUCCEEDED"),
		map[string]string{"x-callback-token": testCallbackToken})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	o, _ := deps.orders.GetByID(t.Context(), "order-1")
	assert.Equal(t, order.StatusProcessing, o.Status)
	require.NotNil(t, o.PaidAt)
}

func TestWebhook_SucceededDeliveredTwice(t *testing.T) {
	deps := defaultDeps()
	deps.orders = newMockOrderRepo(pendingOrder("order-1"))
	srv := newTestServer(t, deps)

	headers := map[string]string{"x-callback-token": testCallbackToken}
	body := webhookBody("order-1", "SUCCEEDED")

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook", body, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	o, _ := deps.orders.GetByID(t.Context(), "order-1")
	require.NotNil(t, o.PaidAt)
	firstPaidAt := *o.PaidAt

	// Redelivery: still 200, but the transition happened exactly once.
	resp = doRequest(t, srv, http.MethodPost, "/api/payment/webhook", body, headers)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	o, _ = deps.orders.GetByID(t.Context(), "order-1")
	assert.Equal(t, order.StatusProcessing, o.Status)
	assert.Equal(t, firstPaidAt, *o.PaidAt, "paidAt must not move on redelivery")
	assert.Equal(t, 2, deps.orders.markPaidCalls)
}

func TestWebhook_Failed(t *testing.T) {
	deps := defaultDeps()
	deps.orders = newMockOrderRepo(pendingOrder("order-1"))
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("order-1", "FAILED"),
		map[string]string{"x-callback-token": testCallbackToken})

	// Failure events are acknowledged, never surfaced as handler errors.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	o, _ := deps.orders.GetByID(t.Context(), "order-1")
	assert.Equal(t, order.StatusFailed, o.Status)
	assert.Nil(t, o.PaidAt, "FAILED never sets paidAt")
}

func TestWebhook_FailedAfterPaidIsNoOp(t *testing.T) {
	deps := defaultDeps()
	o := pendingOrder("order-1")
	deps.orders = newMockOrderRepo(o)
	srv := newTestServer(t, deps)

	headers := map[string]string{"x-callback-token": testCallbackToken}
	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("order-1", "SUCCEEDED"), headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A late FAILED delivery must not clobber the paid state.
	resp = doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("order-1", "FAILED"), headers)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, _ := deps.orders.GetByID(t.Context(), "order-1")
	assert.Equal(t, order.StatusProcessing, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestWebhook_PersistenceFailure(t *testing.T) {
	deps := defaultDeps()
	deps.orders = newMockOrderRepo(pendingOrder("order-1"))
	deps.orders.markPaidErr = fmt.Errorf("db write failed")
	srv := newTestServer(t, deps)

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		webhookBody("order-1", "SUCCEEDED"),
		map[string]string{"x-callback-token": testCallbackToken})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		`{"event": `, map[string]string{"x-callback-token": testCallbackToken})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_MissingReferenceID(t *testing.T) {
	srv := newTestServer(t, defaultDeps())

	resp := doRequest(t, srv, http.MethodPost, "/api/payment/webhook",
		`{"event":"payment.succeeded","data":{"status":"SUCCEEDED"}}`,
		map[string]string{"x-callback-token": testCallbackToken})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDecodeWebhookEvent(t *testing.T) {
	ev, err := decodeWebhookEvent([]byte(webhookBody("order-9", "SUCCEEDED")))
	require.NoError(t, err)
	assert.Equal(t, "payment.succeeded", ev.Event)
	assert.Equal(t, "ewc_1", ev.ID)
	assert.Equal(t, "22000", ev.Amount)
	assert.Equal(t, "pr-1", ev.PaymentRequestID)
	assert.Equal(t, "order-9", ev.ReferenceID)
	assert.Equal(t, "SUCCEEDED", ev.Status)
}

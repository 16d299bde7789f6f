package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/adiwarna/kasir-pos/internal/domain/order"
	"github.com/adiwarna/kasir-pos/internal/domain/payment"
	"github.com/adiwarna/kasir-pos/internal/repository"
)

type orderLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	Items []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type orderResponse struct {
	ID                    string          `json:"id"`
	SubTotal              decimal.Decimal `json:"subTotal"`
	Tax                   decimal.Decimal `json:"tax"`
	GrandTotal            decimal.Decimal `json:"grandTotal"`
	Status                string          `json:"status"`
	PaidAt                *time.Time      `json:"paidAt"`
	ExternalTransactionID string          `json:"externalTransactionId,omitempty"`
	PaymentMethodID       string          `json:"paymentMethodId,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
}

type orderItemResponse struct {
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type createOrderResponse struct {
	Order      orderResponse       `json:"order"`
	OrderItems []orderItemResponse `json:"orderItems"`
	QRString   string              `json:"qrString,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:                    o.ID,
		SubTotal:              o.SubTotal,
		Tax:                   o.Tax,
		GrandTotal:            o.GrandTotal,
		Status:                string(o.Status),
		PaidAt:                o.PaidAt,
		ExternalTransactionID: o.ExternalTransactionID,
		PaymentMethodID:       o.PaymentMethodID,
		CreatedAt:             o.CreatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		respondBindError(w, r, err)
		return
	}

	lines := make([]order.LineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.LineInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.orderSvc.Create(r.Context(), order.CreateRequest{Items: lines})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	items := make([]orderItemResponse, len(result.Items))
	for i, it := range result.Items {
		items[i] = orderItemResponse{
			OrderID:   it.OrderID,
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	respondJSON(w, r, http.StatusCreated, createOrderResponse{
		Order:      toOrderResponse(result.Order),
		OrderItems: items,
		QRString:   result.QRString,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, r, http.StatusNotFound, "order not found")
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// respondOrderError maps order service errors to responses.
func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pnfErr *order.ProductNotFoundError
		iqErr  *order.InvalidQuantityError
		dupErr *order.DuplicateProductError
		gwErr  *payment.GatewayError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &iqErr):
		respondError(w, r, http.StatusUnprocessableEntity, iqErr.Error())
	case errors.As(err, &dupErr):
		respondError(w, r, http.StatusUnprocessableEntity, dupErr.Error())
	case errors.As(err, &pnfErr):
		respondError(w, r, http.StatusUnprocessableEntity, pnfErr.Error())
	case errors.As(err, &gwErr):
		// The order exists but is FAILED; the client may retry with a fresh
		// order.
		respondError(w, r, http.StatusBadGateway, "payment request failed")
	default:
		respondInternal(w, r, err)
	}
}

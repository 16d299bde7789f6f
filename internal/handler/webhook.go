package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/adiwarna/kasir-pos/internal/repository"
)

// webhookEvent is the provider callback payload. Only the fields this
// handler consumes are decoded; everything else is skipped.
type webhookEvent struct {
	Event            string
	ID               string
	Amount           string
	PaymentRequestID string
	ReferenceID      string
	Status           string
}

// paymentWebhook reconciles a provider payment callback with the stored
// order. The flow, in order:
//
//   - token check (constant time): 401 on mismatch, nothing touched
//   - order lookup by reference_id: 404 when unknown, no mutation
//   - non-SUCCEEDED status: acknowledged with 200; a PENDING order moves
//     to FAILED, paid_at stays null
//   - SUCCEEDED: guarded PENDING to PROCESSING transition with paid_at set;
//     redeliveries find the order already PROCESSING and ack without any
//     side effect
//
// Persistence failures are the only 500s; business "failure" events are
// never errors here.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	if !h.validCallbackToken(r) {
		respondError(w, r, http.StatusUnauthorized, "invalid callback token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}

	event, err := decodeWebhookEvent(body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed payload")
		return
	}
	if event.ReferenceID == "" {
		respondError(w, r, http.StatusBadRequest, "missing reference_id")
		return
	}

	o, err := h.orders.GetByID(r.Context(), event.ReferenceID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, r, http.StatusNotFound, "order not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	if event.Status != "SUCCEEDED" {
		// Acknowledge but record the failure; the provider will not retry a
		// payment we already know is dead.
		if err := h.orders.MarkFailed(r.Context(), o.ID); err != nil {
			respondInternal(w, r, err)
			return
		}
		lg.Info("Payment not succeeded",
			zap.String("order_id", o.ID),
			zap.String("provider_status", event.Status),
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	applied, err := h.orders.MarkPaid(r.Context(), o.ID, time.Now())
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if !applied {
		lg.Info("Duplicate payment callback ignored", zap.String("order_id", o.ID))
	} else {
		lg.Info("Order paid",
			zap.String("order_id", o.ID),
			zap.String("external_id", event.ID),
		)
	}
	w.WriteHeader(http.StatusOK)
}

// decodeWebhookEvent pulls the consumed fields out of the callback body.
func decodeWebhookEvent(body []byte) (webhookEvent, error) {
	var ev webhookEvent
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "event":
			v, err := d.Str()
			ev.Event = v
			return err
		case "data":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "id":
					v, err := d.Str()
					ev.ID = v
					return err
				case "amount":
					raw, err := d.Raw()
					ev.Amount = string(raw)
					return err
				case "payment_request_id":
					v, err := d.Str()
					ev.PaymentRequestID = v
					return err
				case "reference_id":
					v, err := d.Str()
					ev.ReferenceID = v
					return err
				case "status":
					v, err := d.Str()
					ev.Status = v
					return err
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	return ev, err
}

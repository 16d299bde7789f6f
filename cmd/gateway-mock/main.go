// Command gateway-mock is a stand-in for the payment gateway during local
// development and integration tests. It accepts payment request creation and
// returns a canned QR payload. It never settles payments; tests deliver
// webhook events to the API themselves.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

type paymentRequestBody struct {
	Currency      string `json:"currency"`
	Amount        json.Number
	ReferenceID   string `json:"reference_id"`
	PaymentMethod struct {
		Type        string `json:"type"`
		Reusability string `json:"reusability"`
		ReferenceID string `json:"reference_id"`
	} `json:"payment_method"`
}

var seq atomic.Int64

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "0.0.0.0:8081", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payment_requests", createPaymentRequest)
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	slog.Info("gateway mock listening", slog.String("addr", addr))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func createPaymentRequest(w http.ResponseWriter, r *http.Request) {
	var body paymentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "API_VALIDATION_ERROR", "malformed request body")
		return
	}
	if body.ReferenceID == "" {
		writeError(w, http.StatusBadRequest, "API_VALIDATION_ERROR", "reference_id is required")
		return
	}

	n := seq.Add(1)
	resp := map[string]any{
		"id":           fmt.Sprintf("pr-mock-%06d", n),
		"reference_id": body.ReferenceID,
		"currency":     body.Currency,
		"status":       "REQUIRES_ACTION",
		"payment_method": map[string]any{
			"id":   fmt.Sprintf("pm-mock-%06d", n),
			"type": body.PaymentMethod.Type,
			"qr_code": map[string]any{
				"channel_properties": map[string]any{
					"qr_string": fmt.Sprintf("00020101021226mock%06d5303360", n),
				},
			},
		},
	}

	slog.Info("payment request created",
		slog.String("reference_id", body.ReferenceID),
		slog.Int64("seq", n),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error_code": code,
		"message":    message,
	})
}

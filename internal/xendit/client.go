// Package xendit implements payment.Gateway against the Xendit payment
// requests API. It is a thin client: one endpoint, fixed currency and
// channel, no retries. Idempotency is the provider's concern; every call
// creates a new payment request, correlated to our order via reference_id.
package xendit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/adiwarna/kasir-pos/internal/domain/payment"
)

// Compile-time check that Client satisfies the gateway port.
var _ payment.Gateway = (*Client)(nil)

const defaultBaseURL = "https://api.xendit.co"

// Config holds the client configuration. SecretKey is the API key supplied
// out-of-band; it is sent as the basic-auth username per the provider's
// authentication scheme.
type Config struct {
	BaseURL     string
	SecretKey   string
	Currency    string
	ChannelCode string
	// QRExpiry is how long an issued QR stays scannable when the caller does
	// not pass an explicit expiry. Defaults to 15 minutes.
	QRExpiry time.Duration
	// Timeout bounds each HTTP call. Defaults to 10 seconds.
	Timeout time.Duration
}

// Client talks to the Xendit payment requests API.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// NewClient creates a Client with an instrumented HTTP transport.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.QRExpiry <= 0 {
		cfg.QRExpiry = 15 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

// CreateQRPayment creates a one-time-use QR-code payment request for the
// given amount, tagged with the order id as reference_id at both the request
// and payment-method level.
func (c *Client) CreateQRPayment(ctx context.Context, req payment.CreateQRRequest) (*payment.QRPayment, error) {
	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = c.now().Add(c.cfg.QRExpiry)
	}

	body := c.encodeRequest(req, expiresAt)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/payment_requests", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.SecretKey, "")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "call payment gateway")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, raw)
	}

	qr, err := decodePaymentRequest(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}
	return qr, nil
}

// encodeRequest builds the payment_requests JSON body.
func (c *Client) encodeRequest(req payment.CreateQRRequest, expiresAt time.Time) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("currency")
	e.Str(c.cfg.Currency)
	e.FieldStart("amount")
	e.Raw(jx.Raw(req.Amount.String()))
	e.FieldStart("reference_id")
	e.Str(req.OrderID)
	e.FieldStart("payment_method")
	e.ObjStart()
	e.FieldStart("type")
	e.Str("QR_CODE")
	e.FieldStart("reusability")
	e.Str("ONE_TIME_USE")
	e.FieldStart("reference_id")
	e.Str(req.OrderID)
	e.FieldStart("qr_code")
	e.ObjStart()
	e.FieldStart("channel_code")
	e.Str(c.cfg.ChannelCode)
	e.FieldStart("channel_properties")
	e.ObjStart()
	e.FieldStart("expires_at")
	e.Str(expiresAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
	e.ObjEnd()
	e.ObjEnd()
	e.ObjEnd()
	return e.Bytes()
}

// decodePaymentRequest extracts the identifiers and QR payload from a
// successful payment_requests response. Unknown fields are skipped.
func decodePaymentRequest(raw []byte) (*payment.QRPayment, error) {
	var qr payment.QRPayment
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			qr.ID = v
			return err
		case "status":
			v, err := d.Str()
			qr.Status = v
			return err
		case "payment_method":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "id":
					v, err := d.Str()
					qr.PaymentMethodID = v
					return err
				case "qr_code":
					return d.Obj(func(d *jx.Decoder, key string) error {
						if key != "channel_properties" {
							return d.Skip()
						}
						return d.Obj(func(d *jx.Decoder, key string) error {
							if key != "qr_string" || d.Next() == jx.Null {
								return d.Skip()
							}
							v, err := d.Str()
							qr.QRString = v
							return err
						})
					})
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	if qr.ID == "" {
		return nil, errors.New("response missing payment request id")
	}
	return &qr, nil
}

// decodeError maps a non-2xx response to a payment.GatewayError, pulling the
// provider error_code and message out of the body when present.
func decodeError(status int, raw []byte) error {
	gwErr := &payment.GatewayError{
		StatusCode: status,
		Message:    http.StatusText(status),
	}
	d := jx.DecodeBytes(raw)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "error_code":
			v, err := d.Str()
			gwErr.Code = v
			return err
		case "message":
			v, err := d.Str()
			gwErr.Message = v
			return err
		default:
			return d.Skip()
		}
	})
	return gwErr
}

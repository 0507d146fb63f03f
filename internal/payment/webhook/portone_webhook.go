package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"mall-be/internal/logger"
	"mall-be/internal/metrics"
	"mall-be/internal/middleware"
	"mall-be/internal/payment"
	"mall-be/internal/transport"

	"go.uber.org/zap"
)

// TestMerchantUID is sent by the gateway console's webhook test button.
const TestMerchantUID = "merchant_123456789"

const maxBodyBytes = 64 << 10

// Payload is the notification body. Only merchant_uid is trusted; the rest
// is logged and the real state is read back from the gateway.
type Payload struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Status      string `json:"status"`
}

type Handler struct {
	payments payment.Service
	metrics  *metrics.Metrics
}

func NewWebhookHandler(payments payment.Service, m *metrics.Metrics) *Handler {
	return &Handler{payments: payments, metrics: m}
}

// Routes wraps the handler in its guard chain: POST only, then the source IP
// allowlist, then the strict rate limit.
func (h *Handler) Routes(allowedIPs []string, limiter *middleware.RateLimiter) http.Handler {
	return middleware.Chain(http.HandlerFunc(h.PaymentWebhookHandler),
		middleware.RequirePOST,
		middleware.AllowIPs(allowedIPs),
		limiter.Limit(middleware.TierStrict),
	)
}

func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("method", "PaymentWebhookHandler"),
	)

	payload, err := readPayload(r)
	if err != nil {
		log.Warn("unreadable webhook body", zap.Error(err))
		h.respond(w, http.StatusBadRequest, "invalid body")
		return
	}

	log = log.With(
		zap.String("merchant_uid", payload.MerchantUID),
		zap.String("imp_uid", payload.ImpUID),
		zap.String("status", payload.Status),
	)

	switch payload.MerchantUID {
	case "":
		log.Warn("webhook without merchant_uid")
		h.respond(w, http.StatusBadRequest, payment.ErrMissingMerchantUID.Error())
		return
	case TestMerchantUID:
		log.Info("test webhook received")
		h.respond(w, http.StatusOK, "test ok")
		return
	}

	rec, err := h.payments.Reconcile(ctx, payload.MerchantUID)
	if err != nil {
		status := transport.StatusFromError(err)
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			log.Warn("gateway unavailable, expecting redelivery", zap.Error(err))
		} else {
			log.Error("webhook reconciliation failed", zap.Error(err))
		}
		h.respond(w, status, http.StatusText(status))
		return
	}

	log.Info("webhook processed",
		zap.String("payment_status", string(rec.Payment.Status)),
		zap.Bool("is_paid_ok", rec.Payment.IsPaidOK),
		zap.String("order_status", string(rec.OrderTo)),
	)
	h.respond(w, http.StatusOK, "ok")
}

func (h *Handler) respond(w http.ResponseWriter, status int, msg string) {
	h.metrics.WebhookResponded(status)
	transport.WriteText(w, status, msg)
}

// readPayload accepts a JSON body or form fields.
func readPayload(r *http.Request) (*Payload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var p Payload
		err := json.NewDecoder(r.Body).Decode(&p)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		p.MerchantUID = strings.TrimSpace(p.MerchantUID)
		return &p, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &Payload{
		ImpUID:      r.PostForm.Get("imp_uid"),
		MerchantUID: strings.TrimSpace(r.PostForm.Get("merchant_uid")),
		Status:      r.PostForm.Get("status"),
	}, nil
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderPlaced()
	m.OrderPlaced()
	m.Reconciled(OutcomePaid)
	m.Reconciled(OutcomeMismatch)
	m.Reconciled(OutcomePaid)
	m.WebhookResponded(http.StatusForbidden)
	m.ObserveGateway("find", errors.New("boom"), 10*time.Millisecond)
	m.ObserveRequest("GET /products/", http.StatusOK, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.OrdersPlaced))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Reconciliations.WithLabelValues(OutcomePaid)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Reconciliations.WithLabelValues(OutcomeMismatch)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookResponses.WithLabelValues("403")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("GET /products/", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.OrderPlaced()
		m.Reconciled(OutcomeFailed)
		m.WebhookResponded(http.StatusOK)
		m.ObserveGateway("token", nil, time.Millisecond)
		m.ObserveRequest("x", http.StatusOK, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).OrderPlaced()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mall_orders_placed_total 1")
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}

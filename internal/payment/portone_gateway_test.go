package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"mall-be/internal/config"
	"mall-be/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

const tokenBody = `{"code":0,"message":null,"response":{"access_token":"tok-1","now":1,"expired_at":2}}`

func newTestGateway(t *testing.T) (*portoneGateway, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	gw := NewPortOneGateway(&config.Config{
		PortOneAPIKey:    "key",
		PortOneAPISecret: "secret",
	}, m).(*portoneGateway)
	return gw, m
}

func TestNewPortOneGateway_Timeout(t *testing.T) {
	gw := NewPortOneGateway(&config.Config{PortOneTimeout: 2 * time.Second}, nil).(*portoneGateway)
	assert.Equal(t, 2*time.Second, gw.httpClient.Timeout)

	gw = NewPortOneGateway(&config.Config{}, nil).(*portoneGateway)
	assert.Equal(t, 5*time.Second, gw.httpClient.Timeout)
}

func TestPortOneGateway_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gw, m := newTestGateway(t)
		calls := 0

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			calls++
			switch req.URL.Path {
			case "/users/getToken":
				assert.Equal(t, http.MethodPost, req.Method)
				var body map[string]string
				require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
				assert.Equal(t, "key", body["imp_key"])
				assert.Equal(t, "secret", body["imp_secret"])
				return jsonResponse(http.StatusOK, tokenBody)
			case "/payments/find/abc123":
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Equal(t, "tok-1", req.Header.Get("Authorization"))
				return jsonResponse(http.StatusOK, `{"code":0,"message":"","response":{"imp_uid":"imp_1","merchant_uid":"abc123","status":"paid","amount":3500}}`)
			}
			t.Fatalf("unexpected request %s", req.URL)
			return nil
		})

		remote, err := gw.Find(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, remote.Status)
		assert.Equal(t, int64(3500), remote.Amount)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 2, testutil.CollectAndCount(m.GatewayLatencyMS))
	})

	t.Run("NoCaching", func(t *testing.T) {
		gw, _ := newTestGateway(t)
		tokenCalls := 0

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			if req.URL.Path == "/users/getToken" {
				tokenCalls++
				return jsonResponse(http.StatusOK, tokenBody)
			}
			return jsonResponse(http.StatusOK, `{"code":0,"response":{"merchant_uid":"m","status":"ready","amount":10}}`)
		})

		_, err := gw.Find(ctx, "m")
		require.NoError(t, err)
		_, err = gw.Find(ctx, "m")
		require.NoError(t, err)
		assert.Equal(t, 2, tokenCalls)
	})

	t.Run("NotFound", func(t *testing.T) {
		gw, _ := newTestGateway(t)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			if req.URL.Path == "/users/getToken" {
				return jsonResponse(http.StatusOK, tokenBody)
			}
			return jsonResponse(http.StatusNotFound, `{"code":1,"message":"존재하지 않는 결제정보입니다.","response":null}`)
		})

		_, err := gw.Find(ctx, "missing")
		assert.ErrorIs(t, err, ErrRemoteNotFound)
	})

	t.Run("EnvelopeError", func(t *testing.T) {
		gw, _ := newTestGateway(t)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			if req.URL.Path == "/users/getToken" {
				return jsonResponse(http.StatusOK, tokenBody)
			}
			return jsonResponse(http.StatusOK, `{"code":-1,"message":"bad request","response":null}`)
		})

		_, err := gw.Find(ctx, "m")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad request")
	})

	t.Run("TokenRejected", func(t *testing.T) {
		gw, _ := newTestGateway(t)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "/users/getToken", req.URL.Path)
			return jsonResponse(http.StatusUnauthorized, `{"code":-1,"message":"invalid key"}`)
		})

		_, err := gw.Find(ctx, "m")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("TransportError", func(t *testing.T) {
		gw, _ := newTestGateway(t)
		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := gw.Find(ctx, "m")
		assert.Error(t, err)
	})
}

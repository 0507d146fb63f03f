package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mall-be/internal/config"
	"mall-be/internal/logger"
	"mall-be/internal/metrics"

	"go.uber.org/zap"
)

// Gateway looks payments up at the payment provider.
type Gateway interface {
	Find(ctx context.Context, merchantUID string) (*RemotePayment, error)
}

const portoneBaseURL = "https://api.iamport.kr"

type portoneGateway struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// ----------------- Constructor -----------------

func NewPortOneGateway(cfg *config.Config, m *metrics.Metrics) Gateway {
	if cfg.PortOneAPIKey == "" || cfg.PortOneAPISecret == "" {
		logger.L().Warn("PortOne API credentials are empty")
	}

	timeout := cfg.PortOneTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &portoneGateway{
		baseURL:   portoneBaseURL,
		apiKey:    cfg.PortOneAPIKey,
		apiSecret: cfg.PortOneAPISecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
	}
}

// envelope wraps every PortOne REST response.
type envelope struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

// ----------------- Find -----------------

// Find fetches a fresh access token and then the payment. Nothing is cached.
func (g *portoneGateway) Find(ctx context.Context, merchantUID string) (*RemotePayment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "Find"),
		zap.String("merchant_uid", merchantUID),
	)

	token, err := g.accessToken(ctx)
	if err != nil {
		log.Error("failed to get gateway token", zap.Error(err))
		return nil, err
	}

	timer := metrics.StartTimer()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/payments/find/"+url.PathEscape(merchantUID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)

	var remote RemotePayment
	status, err := g.do(req, &remote)
	g.metrics.ObserveGateway("find", err, timer.Duration())

	if status == http.StatusNotFound {
		log.Warn("payment not found at gateway")
		return nil, ErrRemoteNotFound
	}
	if err != nil {
		log.Error("gateway find failed", zap.Int("http_status", status), zap.Error(err))
		return nil, err
	}

	log.Debug("gateway payment fetched",
		zap.String("status", string(remote.Status)),
		zap.Int64("amount", remote.Amount),
	)
	return &remote, nil
}

func (g *portoneGateway) accessToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"imp_key":    g.apiKey,
		"imp_secret": g.apiSecret,
	})
	if err != nil {
		return "", err
	}

	timer := metrics.StartTimer()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/users/getToken", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var token struct {
		AccessToken string `json:"access_token"`
	}
	_, err = g.do(req, &token)
	g.metrics.ObserveGateway("token", err, timer.Duration())
	if err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("portone: empty access token")
	}
	return token.AccessToken, nil
}

// do sends req and decodes the envelope's response into out. It returns the
// HTTP status even when err is set.
func (g *portoneGateway) do(req *http.Request, out any) (int, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read portone response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("portone error: status %d: %s", resp.StatusCode, bodyBytes)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode portone envelope: %w", err)
	}
	if env.Code != 0 {
		return resp.StatusCode, fmt.Errorf("portone error: code %d: %s", env.Code, env.Message)
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode portone response: %w", err)
	}
	return resp.StatusCode, nil
}

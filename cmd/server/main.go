package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mall-be/internal/cart"
	"mall-be/internal/config"
	"mall-be/internal/db"
	"mall-be/internal/events"
	"mall-be/internal/logger"
	"mall-be/internal/metrics"
	"mall-be/internal/middleware"
	"mall-be/internal/order"
	"mall-be/internal/payment"
	"mall-be/internal/payment/webhook"
	"mall-be/internal/product"
	"mall-be/internal/transport"
	"mall-be/internal/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error {
		return srv.ListenAndServe()
	}
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, cleanup := newServer(ctx, cfg, database)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.L().Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.L().Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type routes struct {
	cfg      *config.Config
	web      *web.Handler
	webhook  *webhook.Handler
	limiter  *middleware.RateLimiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// newServer wires every service on database. cleanup flushes the event
// publisher; the rate limiter janitor stops with ctx.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaOrderTopic)

	productSvc := product.NewService(product.NewRepository(database))
	cartSvc := cart.NewService(cart.NewRepository(database), productSvc)
	orderSvc := order.NewService(order.NewRepository(database), publisher, m)
	paymentSvc := payment.NewService(
		payment.NewRepository(database),
		payment.NewPortOneGateway(cfg, m),
		orderSvc,
		publisher,
		m,
	)

	limiter := middleware.NewRateLimiter()
	go limiter.Cleanup(ctx, time.Minute)

	router := setupRouter(routes{
		cfg:      cfg,
		web:      web.NewHandler(productSvc, cartSvc, orderSvc, paymentSvc, cfg),
		webhook:  webhook.NewWebhookHandler(paymentSvc, m),
		limiter:  limiter,
		metrics:  m,
		gatherer: reg,
	})

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.L().Warn("failed to close event publisher", zap.Error(err))
		}
	}
	return router, cleanup
}

func setupRouter(rt routes) http.Handler {
	mux := http.NewServeMux()

	general := rt.limiter.Limit(middleware.TierGeneral)
	trusted := middleware.TrustedOrigins(rt.cfg.TrustedOrigins)

	public := func(name string, h http.HandlerFunc) http.Handler {
		return transport.Instrument(rt.metrics, name, middleware.Chain(h, general))
	}
	private := func(name string, h http.HandlerFunc) http.Handler {
		return transport.Instrument(rt.metrics, name, middleware.Chain(h, middleware.RequireAuth, general, trusted))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteText(w, http.StatusOK, "OK")
	})
	mux.Handle("GET /metrics", metrics.Handler(rt.gatherer))

	mux.Handle("GET /products/{$}", public("product_list", rt.web.ListProducts))

	mux.Handle("GET /cart/{$}", private("cart_detail", rt.web.GetCart))
	mux.Handle("POST /cart/{productID}/{$}", private("cart_add", rt.web.AddToCart))
	mux.Handle("POST /cart/{productID}/quantity/{$}", private("cart_quantity", rt.web.UpdateCartQuantity))
	mux.Handle("DELETE /cart/{productID}/{$}", private("cart_remove", rt.web.RemoveFromCart))

	mux.Handle("POST /orders/new/{$}", private("order_new", rt.web.NewOrder))
	mux.Handle("GET /orders/{orderID}/{$}", private("order_detail", rt.web.OrderDetail))
	mux.Handle("GET /orders/{orderID}/pay/{$}", private("order_pay", rt.web.OrderPay))
	mux.Handle("GET /orders/{orderID}/payments/{paymentID}/check/{$}", private("payment_check", rt.web.PaymentCheck))

	// method checking belongs to the webhook guard chain
	mux.Handle("/payments/webhook/{$}", transport.Instrument(rt.metrics, "payment_webhook",
		rt.webhook.Routes(rt.cfg.WebhookIPs, rt.limiter)))

	return middleware.Chain(mux,
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.Authenticate(rt.cfg.JWTSecret),
	)
}

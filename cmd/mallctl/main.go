package main

import (
	"fmt"
	"os"

	"mall-be/internal/category"
	"mall-be/internal/config"
	"mall-be/internal/db"
	"mall-be/internal/events"
	"mall-be/internal/logger"
	"mall-be/internal/order"
	"mall-be/internal/payment"
	"mall-be/internal/product"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	var closers []func() error
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	open := func() (*deps, error) {
		database, err := db.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		publisher := events.New(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		closers = append(closers, publisher.Close, database.Close)

		productRepo := product.NewRepository(database)
		orderSvc := order.NewService(order.NewRepository(database), publisher, nil)

		return &deps{
			orders: orderSvc,
			payments: payment.NewService(
				payment.NewRepository(database),
				payment.NewPortOneGateway(cfg, nil),
				orderSvc,
				publisher,
				nil,
			),
			products: product.NewService(productRepo),
			loader:   product.NewLoader(category.NewService(category.NewRepository(database)), productRepo),
		}, nil
	}

	if err := newRootCmd(cfg.JWTSecret, open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

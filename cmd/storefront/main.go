package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/config"
	"github.com/gabrielly-semijoias/storefront/internal/coupon"
	"github.com/gabrielly-semijoias/storefront/internal/db"
	"github.com/gabrielly-semijoias/storefront/internal/handler"
	"github.com/gabrielly-semijoias/storefront/internal/order"
	"github.com/gabrielly-semijoias/storefront/internal/product"
	"github.com/gabrielly-semijoias/storefront/internal/shipping"
	"github.com/gabrielly-semijoias/storefront/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront starting...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dbConn, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	discounts := coupon.NewService(coupon.NewRepository())

	orderRepo := order.NewRepository(dbConn.Pool, discounts)
	orderSvc := order.NewService(orderRepo)

	productRepo := product.NewRepository(dbConn.Pool)
	productSvc := product.NewService(productRepo)

	shippingClient := shipping.NewClient(cfg.Shipping)

	router := transport.NewRouter(transport.Handlers{
		Orders:   handler.NewOrderHandler(orderSvc),
		Products: handler.NewProductHandler(productSvc),
		Shipping: handler.NewShippingHandler(shippingClient),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

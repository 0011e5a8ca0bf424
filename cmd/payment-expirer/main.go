// Command payment-expirer sweeps overdue pending payments once and exits.
// It backs cron setups where no Temporal cluster is available.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	orderspostgres "github.com/guantera/checkout-api/internal/domains/orders/adapters/persistence/postgres"
	paymentspostgres "github.com/guantera/checkout-api/internal/domains/payments/adapters/persistence/postgres"
	"github.com/guantera/checkout-api/internal/domains/payments/adapters/redsys"
	paymentsapp "github.com/guantera/checkout-api/internal/domains/payments/application"
	platformpostgres "github.com/guantera/checkout-api/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot expire payments")
	}

	service := paymentsapp.NewService(
		paymentspostgres.NewRepository(db),
		redsys.NewFakeGateway(),
		orderspostgres.NewRepository(db),
		paymentsapp.WithLogger(logger),
		paymentsapp.WithExpiryWindow(expiryWindowFromEnv()),
	)
	count, err := service.ExpireStalePayments(ctx)
	if err != nil {
		log.Fatalf("failed to expire payments: %v", err)
	}
	log.Printf("payment expiry completed, %d payments expired", count)
}

func expiryWindowFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("PAYMENT_EXPIRY_MINUTES"))
	if raw == "" {
		return paymentsapp.DefaultExpiryWindow
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return paymentsapp.DefaultExpiryWindow
	}
	return time.Duration(minutes) * time.Minute
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	orderspostgres "github.com/guantera/checkout-api/internal/domains/orders/adapters/persistence/postgres"
	paymentspostgres "github.com/guantera/checkout-api/internal/domains/payments/adapters/persistence/postgres"
	"github.com/guantera/checkout-api/internal/domains/payments/adapters/redsys"
	paymentsapp "github.com/guantera/checkout-api/internal/domains/payments/application"
	paymentworkflows "github.com/guantera/checkout-api/internal/durable/temporal/workflows/payments"
	platformobservability "github.com/guantera/checkout-api/internal/platform/observability"
	platformpostgres "github.com/guantera/checkout-api/internal/platform/postgres"
	paymentactivities "github.com/guantera/checkout-api/internal/platform/temporal/activities/payments"
)

func main() {
	ctx := context.Background()
	const serviceName = "checkout-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; the sweep worker needs the database")
	}

	paymentService := paymentsapp.NewService(
		paymentspostgres.NewRepository(db),
		redsys.NewFakeGateway(),
		orderspostgres.NewRepository(db),
		paymentsapp.WithLogger(logger),
		paymentsapp.WithExpiryWindow(expiryWindowFromEnv()),
	)
	activities := paymentactivities.NewActivities(paymentService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, paymentworkflows.PaymentExpiryTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(paymentworkflows.PaymentExpiryWorkflow, workflow.RegisterOptions{Name: paymentworkflows.PaymentExpiryWorkflowName})
	w.RegisterActivityWithOptions(activities.ExpireStalePayments, activity.RegisterOptions{Name: paymentactivities.ExpireStalePaymentsActivityName})

	logger.Info("worker listening", slog.String("taskQueue", paymentworkflows.PaymentExpiryTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func expiryWindowFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("PAYMENT_EXPIRY_MINUTES"))
	if raw == "" {
		return paymentsapp.DefaultExpiryWindow
	}
	minutes, err := time.ParseDuration(raw + "m")
	if err != nil || minutes <= 0 {
		return paymentsapp.DefaultExpiryWindow
	}
	return minutes
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	catalogmemory "github.com/guantera/checkout-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/guantera/checkout-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/guantera/checkout-api/internal/domains/catalog/ports"
	discountsmemory "github.com/guantera/checkout-api/internal/domains/discounts/adapters/memory"
	discountspostgres "github.com/guantera/checkout-api/internal/domains/discounts/adapters/persistence/postgres"
	discountsapp "github.com/guantera/checkout-api/internal/domains/discounts/application"
	discountsports "github.com/guantera/checkout-api/internal/domains/discounts/ports"
	ordersmemory "github.com/guantera/checkout-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/guantera/checkout-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/guantera/checkout-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/guantera/checkout-api/internal/domains/orders/application"
	ordersports "github.com/guantera/checkout-api/internal/domains/orders/ports"
	paymentsmemory "github.com/guantera/checkout-api/internal/domains/payments/adapters/memory"
	paymentsobs "github.com/guantera/checkout-api/internal/domains/payments/adapters/observability"
	paymentspostgres "github.com/guantera/checkout-api/internal/domains/payments/adapters/persistence/postgres"
	"github.com/guantera/checkout-api/internal/domains/payments/adapters/redsys"
	paymentsapp "github.com/guantera/checkout-api/internal/domains/payments/application"
	paymentsports "github.com/guantera/checkout-api/internal/domains/payments/ports"
	paymentworkflows "github.com/guantera/checkout-api/internal/durable/temporal/workflows/payments"
	"github.com/guantera/checkout-api/internal/notifications"
	platformobservability "github.com/guantera/checkout-api/internal/platform/observability"
	platformpostgres "github.com/guantera/checkout-api/internal/platform/postgres"
	httpapi "github.com/guantera/checkout-api/internal/transport/http"
)

// Run boots the checkout HTTP API with observability, repositories, and the
// payment gateway wired.
func Run(ctx context.Context) error {
	const serviceName = "checkout-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	db, cleanupDB := connectPostgres(ctx, cfg, logger)
	defer cleanupDB()

	gateway, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	repos := buildRepositories(db, logger)

	discountService := discountsapp.NewService(repos.discounts)

	corePaymentService := paymentsapp.NewService(
		repos.payments,
		gateway,
		repos.orders,
		paymentsapp.WithStock(repos.catalog),
		paymentsapp.WithNotifier(notifications.NewLogNotifier(logger)),
		paymentsapp.WithLogger(logger),
		paymentsapp.WithExpiryWindow(time.Duration(cfg.PaymentExpiryMinutes)*time.Minute),
	)
	paymentService := paymentsobs.New(
		corePaymentService,
		paymentsobs.WithLogger(logger),
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	coreOrderService := ordersapp.NewService(
		repos.orders,
		repos.catalog,
		paymentService,
		ordersapp.WithDiscounts(discountGateway{discountService}),
		ordersapp.WithLogger(logger),
	)
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	cleanupSweep := startExpirySweep(ctx, cfg, instruments, logger)
	defer cleanupSweep()

	router := httpapi.NewRouter(httpapi.APIHandlers{
		Orders:   httpapi.NewOrdersAPI(orderService),
		Payments: httpapi.NewPaymentsAPI(paymentService),
	})
	router.Use(otelgin.Middleware(serviceName))

	addr := ":" + cfg.Port
	logger.Info("checkout API listening",
		slog.String("addr", addr),
		slog.String("gateway", cfg.PaymentGateway))
	if err := router.Run(addr); err != nil {
		logger.Error("checkout API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type repositories struct {
	orders    ordersports.Repository
	payments  paymentsports.Repository
	catalog   catalogports.Repository
	discounts discountsports.Repository
}

// buildRepositories wires the Postgres adapters when a database is
// available and falls back to coupled in-memory stores otherwise.
func buildRepositories(db *gorm.DB, logger *slog.Logger) repositories {
	if db != nil {
		return repositories{
			orders:    orderspostgres.NewRepository(db),
			payments:  paymentspostgres.NewRepository(db),
			catalog:   catalogpostgres.NewRepository(db),
			discounts: discountspostgres.NewRepository(db),
		}
	}
	logger.Warn("running with in-memory repositories, all state is volatile")
	orderRepo := ordersmemory.NewRepository()
	return repositories{
		orders:    orderRepo,
		payments:  paymentsmemory.NewRepository(orderRepo.ApplyOutcome),
		catalog:   catalogmemory.NewRepository(),
		discounts: discountsmemory.NewRepository(),
	}
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	return platformpostgres.ConnectAndMigrate(ctx, cfg.PostgresDSN, logger)
}

func buildGateway(cfg Config) (paymentsports.Gateway, error) {
	if cfg.PaymentGateway == "fake" {
		return redsys.NewFakeGateway(), nil
	}
	return redsys.NewClient(redsys.Config{
		SecretKey:       cfg.RedsysSecretKey,
		MerchantCode:    cfg.RedsysMerchantCode,
		Terminal:        cfg.RedsysTerminal,
		MerchantName:    cfg.RedsysMerchantName,
		NotificationURL: cfg.RedsysCallbackURL,
		SuccessURL:      cfg.RedsysSuccessURL,
		FailureURL:      cfg.RedsysFailureURL,
		Sandbox:         cfg.RedsysSandbox,
	})
}

// discountGateway adapts the discounts application service to the orders
// context port.
type discountGateway struct {
	service *discountsapp.Service
}

func (g discountGateway) Apply(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	return g.service.Apply(ctx, code, orderAmount)
}

// startExpirySweep launches the durable payment-expiry workflow when a
// Temporal cluster is reachable. The worker process executes the sweeps.
// The fixed workflow id makes the call idempotent across API restarts.
func startExpirySweep(ctx context.Context, cfg Config, instruments *platformobservability.Instruments, logger *slog.Logger) func() {
	temporalClient, err := connectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Warn("Temporal unavailable, payment expiry sweep not scheduled", slog.String("error", err.Error()))
		return func() {}
	}
	_, err = temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "payments-expiry-sweep",
		TaskQueue: paymentworkflows.PaymentExpiryTaskQueue,
	}, paymentworkflows.PaymentExpiryWorkflowName, paymentworkflows.PaymentExpiryWorkflowInput{
		Interval: 5 * time.Minute,
	})
	if err != nil {
		logger.Warn("failed to start payment expiry workflow", slog.String("error", err.Error()))
	} else {
		logger.Info("payment expiry workflow running", slog.String("namespace", cfg.TemporalNamespace))
	}
	return temporalClient.Close
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/guantera/checkout-api/internal/domains/orders/domain"
	ordersports "github.com/guantera/checkout-api/internal/domains/orders/ports"
)

const tracerName = "github.com/guantera/checkout-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ordersports.CreateOrderInput) (*ordersports.CreateOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.CreateOrder",
		trace.WithAttributes(attribute.Int("cart.items", len(input.Items))))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int("cart.items", len(input.Items)))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	s.metrics.recordCreated(ctx)
	span.SetAttributes(attribute.String("order.id", result.Order.ID))
	s.logInfo(ctx, "order created",
		slog.String("order.id", result.Order.ID),
		slog.String("order.number", result.Order.Number),
		slog.String("order.total", result.Order.TotalAmount.String()))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	return result, nil
}

func (s *Service) RetryPayment(ctx context.Context, orderID string) (*ordersports.CreateOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.RetryPayment", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	s.logInfo(ctx, "retrying payment", slog.String("order.id", orderID))
	result, err := s.inner.RetryPayment(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to retry payment", slog.String("order.id", orderID))
	}
	s.metrics.recordPaymentRetried(ctx)
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated   metric.Int64Counter
	paymentsRetried metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	paymentsRetried, _ := m.Int64Counter("orders.service.payments_retried", metric.WithDescription("Number of payment retries started"))
	return serviceMetrics{ordersCreated: ordersCreated, paymentsRetried: paymentsRetried}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordPaymentRetried(ctx context.Context) {
	if m.paymentsRetried != nil {
		m.paymentsRetried.Add(ctx, 1)
	}
}

var _ ordersports.Service = (*Service)(nil)

package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	paymentsdomain "github.com/guantera/checkout-api/internal/domains/payments/domain"
	paymentsports "github.com/guantera/checkout-api/internal/domains/payments/ports"
)

const tracerName = "github.com/guantera/checkout-api/internal/domains/payments/adapters/observability/service"

// Service decorates the payments service with tracing, logging, and metrics.
type Service struct {
	inner   paymentsports.Service
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

// New wraps the core payments service.
func New(inner paymentsports.Service, opts ...Option) paymentsports.Service {
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

func (s *Service) InitiatePayment(ctx context.Context, orderID string) (*paymentsdomain.Payment, *paymentsports.SignedForm, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentsService.InitiatePayment",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	s.logInfo(ctx, "initiating payment", slog.String("order.id", orderID))
	payment, form, err := s.inner.InitiatePayment(ctx, orderID)
	if err != nil {
		return nil, nil, s.handleError(ctx, span, err, "failed to initiate payment", slog.String("order.id", orderID))
	}
	s.metrics.recordInitiated(ctx)
	span.SetAttributes(attribute.String("payment.id", payment.ID))
	return payment, form, nil
}

func (s *Service) HandleCallback(ctx context.Context, merchantParameters, signature string) (*paymentsports.CallbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentsService.HandleCallback")
	defer span.End()

	result, err := s.inner.HandleCallback(ctx, merchantParameters, signature)
	if err != nil {
		s.metrics.recordCallback(ctx, "rejected")
		return nil, s.handleError(ctx, span, err, "callback rejected")
	}
	s.metrics.recordCallback(ctx, "processed")
	return result, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*paymentsdomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentsService.GetPayment",
		trace.WithAttributes(attribute.String("payment.id", id)))
	defer span.End()

	result, err := s.inner.GetPayment(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load payment", slog.String("payment.id", id))
	}
	return result, nil
}

func (s *Service) GetTransaction(ctx context.Context, paymentID string) (*paymentsdomain.RedsysTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentsService.GetTransaction",
		trace.WithAttributes(attribute.String("payment.id", paymentID)))
	defer span.End()

	result, err := s.inner.GetTransaction(ctx, paymentID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load transaction", slog.String("payment.id", paymentID))
	}
	return result, nil
}

func (s *Service) ExpireStalePayments(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentsService.ExpireStalePayments")
	defer span.End()

	count, err := s.inner.ExpireStalePayments(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to expire stale payments")
	}
	span.SetAttributes(attribute.Int("payments.expired", count))
	if count > 0 {
		s.logInfo(ctx, "stale payments expired", slog.Int("count", count))
	}
	return count, nil
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
	paymentsInitiated metric.Int64Counter
	callbacks         metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	initiated, _ := m.Int64Counter("payments.service.initiated", metric.WithDescription("Number of payment attempts started"))
	callbacks, _ := m.Int64Counter("payments.service.callbacks", metric.WithDescription("Number of gateway callbacks received"))
	return serviceMetrics{paymentsInitiated: initiated, callbacks: callbacks}
}

func (m serviceMetrics) recordInitiated(ctx context.Context) {
	if m.paymentsInitiated != nil {
		m.paymentsInitiated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCallback(ctx context.Context, outcome string) {
	if m.callbacks != nil {
		m.callbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("callback.outcome", outcome)))
	}
}

var _ paymentsports.Service = (*Service)(nil)

package payments

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	paymentactivities "github.com/guantera/checkout-api/internal/platform/temporal/activities/payments"
)

const (
	// PaymentExpiryWorkflowName is the public identifier for registering the workflow.
	PaymentExpiryWorkflowName = "payments.workflows.Expiry"
	// PaymentExpiryTaskQueue is the queue consumed by the worker processing payment sweeps.
	PaymentExpiryTaskQueue = "PAYMENT_EXPIRY"

	// sweepsPerRun bounds history growth before continue-as-new.
	sweepsPerRun = 100
)

// PaymentExpiryWorkflowInput configures the sweep cadence.
type PaymentExpiryWorkflowInput struct {
	Interval time.Duration
}

// PaymentExpiryWorkflow periodically expires payments stuck pending. It
// runs a bounded number of sweeps per execution and continues as new to
// keep history short.
func PaymentExpiryWorkflow(ctx workflow.Context, input PaymentExpiryWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	interval := input.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	activityCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	logger.Info("PaymentExpiryWorkflow started", "interval", interval.String())
	for i := 0; i < sweepsPerRun; i++ {
		var expired int
		if err := workflow.ExecuteActivity(activityCtx, paymentactivities.ExpireStalePaymentsActivityName).Get(ctx, &expired); err != nil {
			logger.Error("payment expiry sweep failed", "error", err)
		} else if expired > 0 {
			logger.Info("payment expiry sweep completed", "expired", expired)
		}
		if err := workflow.Sleep(ctx, interval); err != nil {
			return err
		}
	}
	return workflow.NewContinueAsNewError(ctx, PaymentExpiryWorkflowName, input)
}

package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
	"github.com/smiles-unlimited/ufund/internal/service/basket/port"
)

// CheckoutOrchestrator drives the Stock Reconciler over every line of a
// basket concurrently, removes fulfilled lines, and assembles the report.
// Checkout is best effort per line: one line failing never aborts siblings,
// and only the basket itself being unresolvable aborts the call.
type CheckoutOrchestrator struct {
	baskets     domain.Repository
	reconciler  *StockReconciler
	notifier    port.ReceiptNotifier
	tracer      trace.Tracer
	lineTimeout time.Duration
}

func NewCheckoutOrchestrator(baskets domain.Repository, reconciler *StockReconciler, notifier port.ReceiptNotifier, tracer trace.Tracer, lineTimeout time.Duration) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{
		baskets:     baskets,
		reconciler:  reconciler,
		notifier:    notifier,
		tracer:      tracer,
		lineTimeout: lineTimeout,
	}
}

// Checkout reconciles the basket snapshot taken at call time. Re-running
// after a partial success is safe: fulfilled lines are gone from the next
// snapshot and are never reconciled twice.
func (o *CheckoutOrchestrator) Checkout(ctx context.Context, userID int, receiptEmail string) (*domain.CheckoutReport, error) {
	ctx, span := o.tracer.Start(ctx, "checkout.Checkout", trace.WithAttributes(
		attribute.Int("user.id", userID),
	))
	defer span.End()
	started := time.Now()

	basket, err := o.baskets.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "basket unresolvable")
		return nil, err
	}
	snapshot := basket.Snapshot()
	span.SetAttributes(attribute.Int("basket.lines", len(snapshot)))

	report := &domain.CheckoutReport{
		ID:     uuid.New().String(),
		UserID: userID,
		Lines:  make([]domain.LineResult, len(snapshot)),
	}

	// Unordered parallel fan-out, one branch per line. Per-toy ordering is
	// enforced inside the reconciler; the join below guarantees no partial
	// report escapes early.
	g := new(errgroup.Group)
	for i, line := range snapshot {
		g.Go(func() error {
			lineCtx := ctx
			if o.lineTimeout > 0 {
				var cancel context.CancelFunc
				lineCtx, cancel = context.WithTimeout(ctx, o.lineTimeout)
				defer cancel()
			}

			result := o.reconciler.ReconcileLine(lineCtx, line.ToyID, line.Quantity)
			if result.Outcome == domain.OutcomeApplied {
				if _, err := o.baskets.RemoveLine(lineCtx, userID, line.ToyID); err != nil {
					// Stock is already decremented; the basket over-reports this
					// line until the next checkout attempt re-reconciles it.
					logger.Ctx(lineCtx).Warn().Err(err).
						Int("user_id", userID).
						Int("toy_id", line.ToyID).
						Msg("fulfilled line could not be removed from basket")
				}
			}
			report.Lines[i] = result
			return nil
		})
	}
	_ = g.Wait()

	for _, result := range report.Lines {
		checkoutLines.WithLabelValues(string(result.Outcome)).Inc()
	}

	// One re-fetch after the join gives the caller a consistent final view.
	final, err := o.baskets.Get(ctx, userID)
	if err != nil {
		report.BasketError = err.Error()
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Int("user_id", userID).Msg("post-checkout basket fetch failed")
	} else {
		report.Basket = final
	}

	o.sendReceipt(ctx, report, snapshot, receiptEmail)

	checkoutDuration.Observe(time.Since(started).Seconds())
	logger.Ctx(ctx).Info().
		Str("report_id", report.ID).
		Int("user_id", userID).
		Int("lines", len(report.Lines)).
		Int("applied", len(report.AppliedLines())).
		Msg("checkout completed")
	return report, nil
}

// sendReceipt hands the receipt to the notifier, fire and forget. Failures
// are logged and counted; they never roll back a completed checkout.
func (o *CheckoutOrchestrator) sendReceipt(ctx context.Context, report *domain.CheckoutReport, snapshot []domain.Line, email string) {
	if o.notifier == nil || email == "" {
		return
	}
	applied := make([]domain.Line, 0, len(snapshot))
	for _, line := range snapshot {
		for _, result := range report.Lines {
			if result.ToyID == line.ToyID && result.Outcome == domain.OutcomeApplied {
				applied = append(applied, line)
				break
			}
		}
	}
	if len(applied) == 0 {
		return
	}

	event := &domain.ReceiptEvent{
		EventID: report.ID,
		UserID:  report.UserID,
		ToEmail: email,
		Body:    domain.RenderReceipt(applied),
	}
	if err := o.notifier.SendReceipt(ctx, event); err != nil {
		receiptFailures.Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("report_id", report.ID).Msg("receipt notification failed")
	}
}

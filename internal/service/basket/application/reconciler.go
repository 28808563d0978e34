package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
	"github.com/smiles-unlimited/ufund/internal/service/basket/port"
)

// StockReconciler validates one basket line against live stock and applies
// the decrement. The check-then-write runs inside the per-toy lock, so two
// reconciliations of the same toy serialize and can never jointly decrement
// more than the stock either of them observed.
type StockReconciler struct {
	catalog catalog.Repository
	locks   port.StockLocker
	tracer  trace.Tracer
}

func NewStockReconciler(catalogRepo catalog.Repository, locks port.StockLocker, tracer trace.Tracer) *StockReconciler {
	return &StockReconciler{catalog: catalogRepo, locks: locks, tracer: tracer}
}

// ReconcileLine classifies the line and, only on the success path, performs
// exactly one stock mutation. Every failure path performs none.
func (r *StockReconciler) ReconcileLine(ctx context.Context, toyID, requestedQty int) domain.LineResult {
	ctx, span := r.tracer.Start(ctx, "checkout.ReconcileLine", trace.WithAttributes(
		attribute.Int("toy.id", toyID),
		attribute.Int("line.requested", requestedQty),
	))
	defer span.End()

	result := domain.LineResult{ToyID: toyID, Requested: requestedQty}
	if requestedQty < 1 {
		result.Outcome = domain.OutcomeFailed
		result.Reason = domain.ErrInvalidQuantity.Error()
		span.SetStatus(codes.Error, result.Reason)
		return result
	}

	unlock, err := r.locks.Lock(ctx, toyID)
	if err != nil {
		return r.failed(span, result, fmt.Errorf("acquire stock lock: %w", err))
	}
	defer unlock()

	// The context may have ended while waiting on the lock; no store call,
	// and in particular no decrement, may run after that.
	if err := ctx.Err(); err != nil {
		return r.failed(span, result, err)
	}

	toy, err := r.catalog.Get(ctx, toyID)
	if err != nil {
		if errors.Is(err, catalog.ErrToyNotFound) {
			result.Outcome = domain.OutcomeNotFound
			span.AddEvent("toy missing from catalog")
			return result
		}
		return r.failed(span, result, err)
	}
	result.Name = toy.Name

	if toy.Quantity < requestedQty {
		result.Outcome = domain.OutcomeInsufficientStock
		result.RemainingStock = toy.Quantity
		span.AddEvent("insufficient stock", trace.WithAttributes(attribute.Int("stock.available", toy.Quantity)))
		return result
	}

	newQty, err := r.catalog.DecrementStock(ctx, toyID, requestedQty)
	if err != nil {
		// The conditional decrement is the authoritative guard; losing a race
		// against the admin stock path surfaces here.
		if errors.Is(err, catalog.ErrInsufficientStock) {
			result.Outcome = domain.OutcomeInsufficientStock
			result.RemainingStock = newQty
			return result
		}
		if errors.Is(err, catalog.ErrToyNotFound) {
			result.Outcome = domain.OutcomeNotFound
			return result
		}
		return r.failed(span, result, err)
	}

	result.Outcome = domain.OutcomeApplied
	result.RemainingStock = newQty
	span.SetAttributes(attribute.Int("stock.remaining", newQty))
	return result
}

func (r *StockReconciler) failed(span trace.Span, result domain.LineResult, err error) domain.LineResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	result.Outcome = domain.OutcomeFailed
	result.Reason = err.Error()
	return result
}

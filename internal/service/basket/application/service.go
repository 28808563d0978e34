package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	catalog "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
)

// BasketService exposes basket reads and mutations. It also implements the
// catalog service's BasketProjector port so catalog changes reach every
// basket.
type BasketService struct {
	repo    domain.Repository
	catalog catalog.Repository
	tracer  trace.Tracer
}

func NewBasketService(repo domain.Repository, catalogRepo catalog.Repository, tracer trace.Tracer) *BasketService {
	return &BasketService{repo: repo, catalog: catalogRepo, tracer: tracer}
}

func (s *BasketService) GetBasket(ctx context.Context, userID int) (*domain.Basket, error) {
	return s.repo.Get(ctx, userID)
}

// EnsureBasket creates the user's basket if it does not exist yet. Called at
// account creation; baskets are never deleted afterwards.
func (s *BasketService) EnsureBasket(ctx context.Context, userID int) error {
	_, err := s.repo.Create(ctx, userID)
	return err
}

// AddToy validates the request against live stock and merges a denormalized
// line into the basket. Validation failures leave both stores untouched.
func (s *BasketService) AddToy(ctx context.Context, userID, toyID, qty int) (*domain.Basket, error) {
	ctx, span := s.tracer.Start(ctx, "basket.AddToy", trace.WithAttributes(
		attribute.Int("user.id", userID),
		attribute.Int("toy.id", toyID),
		attribute.Int("line.quantity", qty),
	))
	defer span.End()

	if qty < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, qty)
	}
	toy, err := s.catalog.Get(ctx, toyID)
	if err != nil {
		return nil, err
	}
	basket, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if max := basket.MaxAddable(toy); qty > max {
		return nil, fmt.Errorf("%w: %d requested, %d addable", catalog.ErrInsufficientStock, qty, max)
	}

	updated, err := s.repo.AddLine(ctx, userID, domain.Line{
		ToyID:    toy.ID,
		Name:     toy.Name,
		Cost:     toy.Cost,
		Quantity: qty,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().Int("user_id", userID).Int("toy_id", toyID).Int("qty", qty).Msg("toy added to basket")
	return updated, nil
}

func (s *BasketService) RemoveToy(ctx context.Context, userID, toyID int) (*domain.Basket, error) {
	return s.repo.RemoveLine(ctx, userID, toyID)
}

// MaxAddable reports the largest quantity of the toy the user could still add
// right now. Informative only; commit-time validation is the reconciler's.
func (s *BasketService) MaxAddable(ctx context.Context, userID, toyID int) (int, error) {
	toy, err := s.catalog.Get(ctx, toyID)
	if err != nil {
		return 0, err
	}
	basket, err := s.repo.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return basket.MaxAddable(toy), nil
}

// ApplyToyUpdate implements catalog/port.BasketProjector: every matching line
// picks up the new name and cost, and its quantity is capped at the new
// stock. A line capped to zero is dropped rather than kept empty.
func (s *BasketService) ApplyToyUpdate(ctx context.Context, toy *catalog.Toy) error {
	baskets, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range baskets {
		basket := &baskets[i]
		line := basket.FindLine(toy.ID)
		if line == nil {
			continue
		}
		line.Name = toy.Name
		line.Cost = toy.Cost
		if line.Quantity > toy.Quantity {
			line.Quantity = toy.Quantity
		}
		if line.Quantity == 0 {
			basket.RemoveLine(toy.ID)
		}
		if err := s.repo.Save(ctx, basket); err != nil {
			return err
		}
		logger.Ctx(ctx).Info().Int("basket_id", basket.ID).Int("toy_id", toy.ID).Msg("basket line synced with catalog update")
	}
	return nil
}

// RemoveToyEverywhere implements catalog/port.BasketProjector for deletes.
func (s *BasketService) RemoveToyEverywhere(ctx context.Context, toyID int) error {
	baskets, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range baskets {
		basket := &baskets[i]
		if !basket.RemoveLine(toyID) {
			continue
		}
		if err := s.repo.Save(ctx, basket); err != nil {
			return err
		}
		logger.Ctx(ctx).Info().Int("basket_id", basket.ID).Int("toy_id", toyID).Msg("deleted toy removed from basket")
	}
	return nil
}

package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	"github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
	"github.com/smiles-unlimited/ufund/internal/service/catalog/port"
)

// CatalogService orchestrates catalog operations. Updates and deletes fan out
// into baskets through the projector port so basket lines never reference a
// toy state that no longer exists.
type CatalogService struct {
	repo    domain.Repository
	baskets port.BasketProjector
	tracer  trace.Tracer
}

func NewCatalogService(repo domain.Repository, baskets port.BasketProjector, tracer trace.Tracer) *CatalogService {
	return &CatalogService{repo: repo, baskets: baskets, tracer: tracer}
}

func (s *CatalogService) GetToy(ctx context.Context, id int) (*domain.Toy, error) {
	return s.repo.Get(ctx, id)
}

func (s *CatalogService) ListToys(ctx context.Context) ([]domain.Toy, error) {
	return s.repo.List(ctx)
}

func (s *CatalogService) SearchToys(ctx context.Context, name string) ([]domain.Toy, error) {
	return s.repo.Search(ctx, name)
}

func (s *CatalogService) CreateToy(ctx context.Context, toy *domain.Toy) (*domain.Toy, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.CreateToy")
	defer span.End()

	if err := toy.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	created, err := s.repo.Create(ctx, toy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("toy.id", created.ID))
	logger.Ctx(ctx).Info().Int("toy_id", created.ID).Str("name", created.Name).Msg("toy created")
	return created, nil
}

// UpdateToy writes the new toy state and propagates it across all baskets.
// The basket pass runs first so a propagation failure leaves the catalog
// untouched.
func (s *CatalogService) UpdateToy(ctx context.Context, toy *domain.Toy) (*domain.Toy, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateToy")
	defer span.End()

	if err := toy.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := s.baskets.ApplyToyUpdate(ctx, toy); err != nil {
		span.RecordError(err)
		return nil, err
	}
	updated, err := s.repo.Update(ctx, toy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().Int("toy_id", updated.ID).Msg("toy updated across catalog and baskets")
	return updated, nil
}

// DeleteToy removes the toy from every basket before removing it from the
// catalog, so no basket is left holding a dangling line.
func (s *CatalogService) DeleteToy(ctx context.Context, id int) error {
	ctx, span := s.tracer.Start(ctx, "catalog.DeleteToy")
	defer span.End()

	if err := s.baskets.RemoveToyEverywhere(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Int("toy_id", id).Msg("toy deleted")
	return nil
}

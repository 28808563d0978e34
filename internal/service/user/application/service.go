package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	"github.com/smiles-unlimited/ufund/internal/service/user/domain"
	"github.com/smiles-unlimited/ufund/internal/service/user/port"
)

// UserService covers account CRUD and the partnership workflow. Partnership
// mutations follow the same discipline as checkout: validate first, mutate
// only after validation passes, report a structured outcome.
type UserService struct {
	repo    domain.Repository
	baskets port.BasketProvisioner
	tracer  trace.Tracer
}

func NewUserService(repo domain.Repository, baskets port.BasketProvisioner, tracer trace.Tracer) *UserService {
	return &UserService{repo: repo, baskets: baskets, tracer: tracer}
}

func (s *UserService) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *UserService) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) SearchUsers(ctx context.Context, name string) ([]domain.User, error) {
	return s.repo.Search(ctx, name)
}

// CreateUser stores the account and provisions its basket. The basket exists
// exactly once per user and outlives every checkout.
func (s *UserService) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "user.CreateUser")
	defer span.End()

	if err := user.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.baskets.EnsureBasket(ctx, created.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("user.id", created.ID))
	logger.Ctx(ctx).Info().Int("user_id", created.ID).Str("name", created.Name).Msg("user created")
	return created, nil
}

func (s *UserService) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, user)
}

func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// Apply records a partnership application. Partners and users with a pending
// application are rejected, never silently duplicated.
func (s *UserService) Apply(ctx context.Context, userID int) error {
	ctx, span := s.tracer.Start(ctx, "partnership.Apply", trace.WithAttributes(
		attribute.Int("user.id", userID),
	))
	defer span.End()

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if user.IsPartner {
		span.SetStatus(codes.Error, domain.ErrAlreadyPartner.Error())
		return domain.ErrAlreadyPartner
	}
	if err := s.repo.AddApplicant(ctx, userID); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Int("user_id", userID).Msg("partnership application filed")
	return nil
}

// Accept moves an applicant to partner status. Accepting an existing partner
// is a no-op; accepting a user who never applied fails without touching the
// partner set.
func (s *UserService) Accept(ctx context.Context, userID int) error {
	ctx, span := s.tracer.Start(ctx, "partnership.Accept", trace.WithAttributes(
		attribute.Int("user.id", userID),
	))
	defer span.End()

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if user.IsPartner {
		span.AddEvent("already a partner")
		logger.Ctx(ctx).Info().Int("user_id", userID).Msg("accept is a no-op, user already partner")
		return nil
	}

	removed, err := s.repo.RemoveApplicant(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !removed {
		span.SetStatus(codes.Error, domain.ErrNotApplicant.Error())
		return domain.ErrNotApplicant
	}

	if err := user.GrantPartner(); err != nil {
		return err
	}
	if _, err := s.repo.Update(ctx, user); err != nil {
		// Re-file the application so the workflow can be retried; the user
		// must not be stranded between the two states.
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		if addErr := s.repo.AddApplicant(ctx, userID); addErr != nil {
			logger.Ctx(ctx).Error().Err(addErr).Int("user_id", userID).Msg("failed to restore application after update failure")
		}
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Int("user_id", userID).Msg("partnership accepted")
	return nil
}

func (s *UserService) ListApplicants(ctx context.Context) ([]int, error) {
	return s.repo.ListApplicants(ctx)
}

func (s *UserService) ListPartners(ctx context.Context) ([]int, error) {
	return s.repo.ListPartners(ctx)
}

// PartnershipState reports where the user stands in the workflow.
func (s *UserService) PartnershipState(ctx context.Context, userID int) (domain.PartnershipState, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsPartner {
		return domain.StatePartner, nil
	}
	applicants, err := s.repo.ListApplicants(ctx)
	if err != nil {
		return "", err
	}
	for _, id := range applicants {
		if id == userID {
			return domain.StateApplied, nil
		}
	}
	return domain.StateNotApplied, nil
}

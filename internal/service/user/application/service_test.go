package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/smiles-unlimited/ufund/internal/service/user/domain"
	"github.com/smiles-unlimited/ufund/internal/service/user/infrastructure"
)

type recordingProvisioner struct {
	provisioned []int
}

func (p *recordingProvisioner) EnsureBasket(ctx context.Context, userID int) error {
	p.provisioned = append(p.provisioned, userID)
	return nil
}

func newUserFixture(t *testing.T) (*UserService, *recordingProvisioner) {
	t.Helper()
	provisioner := &recordingProvisioner{}
	svc := NewUserService(infrastructure.NewMemoryUserRepository(), provisioner, otel.Tracer("test"))
	return svc, provisioner
}

func createUser(t *testing.T, svc *UserService, name string) *domain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), &domain.User{Name: name})
	require.NoError(t, err)
	return user
}

func TestCreateUserProvisionsBasket(t *testing.T) {
	svc, provisioner := newUserFixture(t)

	user := createUser(t, svc, "Alice")
	assert.Equal(t, []int{user.ID}, provisioner.provisioned)
	assert.False(t, user.IsPartner)

	_, err := svc.CreateUser(context.Background(), &domain.User{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.CreateUser(context.Background(), &domain.User{Name: "Alice"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestPartnershipWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserFixture(t)
	user := createUser(t, svc, "Alice")

	state, err := svc.PartnershipState(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotApplied, state)

	require.NoError(t, svc.Apply(ctx, user.ID))

	state, err = svc.PartnershipState(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateApplied, state)

	applicants, err := svc.ListApplicants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{user.ID}, applicants)

	require.NoError(t, svc.Accept(ctx, user.ID))

	state, err = svc.PartnershipState(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePartner, state)

	partners, err := svc.ListPartners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{user.ID}, partners)

	applicants, err = svc.ListApplicants(ctx)
	require.NoError(t, err)
	assert.Empty(t, applicants)
}

func TestApplyConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserFixture(t)
	user := createUser(t, svc, "Alice")

	require.NoError(t, svc.Apply(ctx, user.ID))
	assert.ErrorIs(t, svc.Apply(ctx, user.ID), domain.ErrDuplicateApplication)

	require.NoError(t, svc.Accept(ctx, user.ID))
	assert.ErrorIs(t, svc.Apply(ctx, user.ID), domain.ErrAlreadyPartner)

	assert.ErrorIs(t, svc.Apply(ctx, 999), domain.ErrUserNotFound)
}

func TestAcceptEdgeCases(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserFixture(t)
	user := createUser(t, svc, "Alice")

	// Never applied.
	assert.ErrorIs(t, svc.Accept(ctx, user.ID), domain.ErrNotApplicant)

	require.NoError(t, svc.Apply(ctx, user.ID))
	require.NoError(t, svc.Accept(ctx, user.ID))

	// Accepting an existing partner is a no-op, not an error.
	assert.NoError(t, svc.Accept(ctx, user.ID))

	assert.ErrorIs(t, svc.Accept(ctx, 999), domain.ErrUserNotFound)
}

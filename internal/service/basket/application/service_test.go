package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
	"github.com/smiles-unlimited/ufund/internal/service/basket/infrastructure"
	catalogdomain "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
	cataloginfra "github.com/smiles-unlimited/ufund/internal/service/catalog/infrastructure"
)

func newBasketService(t *testing.T) (*BasketService, *cataloginfra.MemoryToyRepository) {
	t.Helper()
	toys := cataloginfra.NewMemoryToyRepository()
	return NewBasketService(infrastructure.NewMemoryBasketRepository(), toys, otel.Tracer("test")), toys
}

func seedToy(t *testing.T, toys *cataloginfra.MemoryToyRepository, toy catalogdomain.Toy) *catalogdomain.Toy {
	t.Helper()
	created, err := toys.Create(context.Background(), &toy)
	require.NoError(t, err)
	return created
}

func TestAddToyValidatesAgainstStock(t *testing.T) {
	ctx := context.Background()
	svc, toys := newBasketService(t)
	teddy := seedToy(t, toys, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	require.NoError(t, svc.EnsureBasket(ctx, 1))

	basket, err := svc.AddToy(ctx, 1, teddy.ID, 3)
	require.NoError(t, err)
	require.Len(t, basket.Lines, 1)
	assert.Equal(t, "Teddy Bear", basket.Lines[0].Name)
	assert.Equal(t, 20, basket.Lines[0].Cost)

	// 3 already held, 5 in stock: only 2 more fit.
	_, err = svc.AddToy(ctx, 1, teddy.ID, 3)
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	basket, err = svc.AddToy(ctx, 1, teddy.ID, 2)
	require.NoError(t, err)
	require.Len(t, basket.Lines, 1)
	assert.Equal(t, 5, basket.Lines[0].Quantity)
}

func TestAddToyRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, toys := newBasketService(t)
	teddy := seedToy(t, toys, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	require.NoError(t, svc.EnsureBasket(ctx, 1))

	_, err := svc.AddToy(ctx, 1, teddy.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AddToy(ctx, 1, 999, 1)
	assert.ErrorIs(t, err, catalogdomain.ErrToyNotFound)

	_, err = svc.AddToy(ctx, 42, teddy.ID, 1)
	assert.ErrorIs(t, err, domain.ErrBasketNotFound)
}

func TestMaxAddable(t *testing.T) {
	ctx := context.Background()
	svc, toys := newBasketService(t)
	teddy := seedToy(t, toys, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	require.NoError(t, svc.EnsureBasket(ctx, 1))

	max, err := svc.MaxAddable(ctx, 1, teddy.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, max)

	_, err = svc.AddToy(ctx, 1, teddy.ID, 4)
	require.NoError(t, err)

	max, err = svc.MaxAddable(ctx, 1, teddy.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, max)
}

func TestApplyToyUpdateSyncsLines(t *testing.T) {
	ctx := context.Background()
	svc, toys := newBasketService(t)
	teddy := seedToy(t, toys, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	require.NoError(t, svc.EnsureBasket(ctx, 1))
	_, err := svc.AddToy(ctx, 1, teddy.ID, 4)
	require.NoError(t, err)

	// Stock drops below the held quantity; the line is capped.
	updated := &catalogdomain.Toy{ID: teddy.ID, Name: "Teddy Bear XL", Cost: 30, Quantity: 2}
	require.NoError(t, svc.ApplyToyUpdate(ctx, updated))

	basket, err := svc.GetBasket(ctx, 1)
	require.NoError(t, err)
	require.Len(t, basket.Lines, 1)
	assert.Equal(t, "Teddy Bear XL", basket.Lines[0].Name)
	assert.Equal(t, 30, basket.Lines[0].Cost)
	assert.Equal(t, 2, basket.Lines[0].Quantity)

	// Stock hits zero; the line is dropped entirely.
	updated.Quantity = 0
	require.NoError(t, svc.ApplyToyUpdate(ctx, updated))

	basket, err = svc.GetBasket(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, basket.Lines)
}

func TestRemoveToyEverywhere(t *testing.T) {
	ctx := context.Background()
	svc, toys := newBasketService(t)
	teddy := seedToy(t, toys, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 10})
	for userID := 1; userID <= 3; userID++ {
		require.NoError(t, svc.EnsureBasket(ctx, userID))
		_, err := svc.AddToy(ctx, userID, teddy.ID, 1)
		require.NoError(t, err)
	}

	require.NoError(t, svc.RemoveToyEverywhere(ctx, teddy.ID))

	for userID := 1; userID <= 3; userID++ {
		basket, err := svc.GetBasket(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, basket.Lines)
	}
}

func TestEnsureBasketIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, toys := newBasketService(t)
	teddy := seedToy(t, toys, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})

	require.NoError(t, svc.EnsureBasket(ctx, 1))
	_, err := svc.AddToy(ctx, 1, teddy.ID, 2)
	require.NoError(t, err)

	// A second ensure must not wipe the existing lines.
	require.NoError(t, svc.EnsureBasket(ctx, 1))
	basket, err := svc.GetBasket(ctx, 1)
	require.NoError(t, err)
	require.Len(t, basket.Lines, 1)
}

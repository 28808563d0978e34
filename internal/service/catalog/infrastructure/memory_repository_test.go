package infrastructure

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

func TestMemoryToyRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryToyRepository()

	created, err := repo.Create(ctx, &domain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5, Type: "plush"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teddy Bear", got.Name)

	created.Cost = 25
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Cost)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrToyNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrToyNotFound)
}

func TestMemoryToyRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryToyRepository()
	for _, name := range []string{"Teddy Bear", "Toy Train", "Teddy Mini"} {
		_, err := repo.Create(ctx, &domain.Toy{Name: name, Cost: 1, Quantity: 1})
		require.NoError(t, err)
	}

	found, err := repo.Search(ctx, "Teddy")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Teddy Bear", found[0].Name)
	assert.Equal(t, "Teddy Mini", found[1].Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDecrementStock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryToyRepository()
	toy, err := repo.Create(ctx, &domain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	require.NoError(t, err)

	left, err := repo.DecrementStock(ctx, toy.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	left, err = repo.DecrementStock(ctx, toy.ID, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, left)

	_, err = repo.DecrementStock(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrToyNotFound)
}

// Hammers one toy from many goroutines: exactly stock/qty decrements may
// succeed and the count never goes negative.
func TestDecrementStockConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryToyRepository()
	toy, err := repo.Create(ctx, &domain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 50})
	require.NoError(t, err)

	const workers = 100
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.DecrementStock(ctx, toy.ID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 50, succeeded)

	final, err := repo.Get(ctx, toy.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Quantity)
}

package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
)

// MemoryBasketRepository is an in-process basket store for tests and
// single-node deployments.
type MemoryBasketRepository struct {
	mu      sync.RWMutex
	baskets map[int]*domain.Basket
}

func NewMemoryBasketRepository() *MemoryBasketRepository {
	return &MemoryBasketRepository{baskets: make(map[int]*domain.Basket)}
}

func (r *MemoryBasketRepository) Get(ctx context.Context, userID int) (*domain.Basket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	basket, ok := r.baskets[userID]
	if !ok {
		return nil, domain.ErrBasketNotFound
	}
	return copyBasket(basket), nil
}

func (r *MemoryBasketRepository) Create(ctx context.Context, userID int) (*domain.Basket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.baskets[userID]; ok {
		return copyBasket(existing), nil
	}
	basket := domain.NewBasket(userID)
	r.baskets[userID] = basket
	return copyBasket(basket), nil
}

func (r *MemoryBasketRepository) AddLine(ctx context.Context, userID int, line domain.Line) (*domain.Basket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	basket, ok := r.baskets[userID]
	if !ok {
		return nil, domain.ErrBasketNotFound
	}
	if err := basket.AddLine(line); err != nil {
		return nil, err
	}
	return copyBasket(basket), nil
}

func (r *MemoryBasketRepository) RemoveLine(ctx context.Context, userID, toyID int) (*domain.Basket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	basket, ok := r.baskets[userID]
	if !ok {
		return nil, domain.ErrBasketNotFound
	}
	if !basket.RemoveLine(toyID) {
		return nil, domain.ErrLineNotFound
	}
	return copyBasket(basket), nil
}

func (r *MemoryBasketRepository) ListAll(ctx context.Context) ([]domain.Basket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Basket, 0, len(r.baskets))
	for _, basket := range r.baskets {
		out = append(out, *copyBasket(basket))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryBasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baskets[basket.ID] = copyBasket(basket)
	return nil
}

func copyBasket(b *domain.Basket) *domain.Basket {
	return &domain.Basket{ID: b.ID, Lines: b.Snapshot()}
}

package infrastructure

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

// MemoryToyRepository is an in-process catalog store. It backs tests and
// single-node deployments that have no MySQL.
type MemoryToyRepository struct {
	mu     sync.RWMutex
	toys   map[int]domain.Toy
	nextID int
}

func NewMemoryToyRepository() *MemoryToyRepository {
	return &MemoryToyRepository{toys: make(map[int]domain.Toy), nextID: 1}
}

func (r *MemoryToyRepository) Get(ctx context.Context, id int) (*domain.Toy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	toy, ok := r.toys[id]
	if !ok {
		return nil, domain.ErrToyNotFound
	}
	return &toy, nil
}

func (r *MemoryToyRepository) List(ctx context.Context) ([]domain.Toy, error) {
	return r.Search(ctx, "")
}

func (r *MemoryToyRepository) Search(ctx context.Context, name string) ([]domain.Toy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Toy, 0, len(r.toys))
	for _, toy := range r.toys {
		if name == "" || strings.Contains(toy.Name, name) {
			out = append(out, toy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryToyRepository) Create(ctx context.Context, toy *domain.Toy) (*domain.Toy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := *toy
	created.ID = r.nextID
	r.nextID++
	r.toys[created.ID] = created
	return &created, nil
}

func (r *MemoryToyRepository) Update(ctx context.Context, toy *domain.Toy) (*domain.Toy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.toys[toy.ID]; !ok {
		return nil, domain.ErrToyNotFound
	}
	updated := *toy
	r.toys[toy.ID] = updated
	return &updated, nil
}

func (r *MemoryToyRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.toys[id]; !ok {
		return domain.ErrToyNotFound
	}
	delete(r.toys, id)
	return nil
}

// DecrementStock holds the write lock across check and write, so concurrent
// decrements of the same toy serialize and can never overdraw the stock.
func (r *MemoryToyRepository) DecrementStock(ctx context.Context, id, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	toy, ok := r.toys[id]
	if !ok {
		return 0, domain.ErrToyNotFound
	}
	if toy.Quantity < qty {
		return toy.Quantity, domain.ErrInsufficientStock
	}
	toy.Quantity -= qty
	r.toys[id] = toy
	return toy.Quantity, nil
}

package infrastructure

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/smiles-unlimited/ufund/internal/service/user/domain"
)

// MemoryUserRepository is an in-process user store for tests and single-node
// deployments.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	users      map[int]domain.User
	applicants map[int]struct{}
	nextID     int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:      make(map[int]domain.User),
		applicants: make(map[int]struct{}),
		nextID:     1,
	}
}

func (r *MemoryUserRepository) Get(ctx context.Context, id int) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Name, name) {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.Search(ctx, "")
}

func (r *MemoryUserRepository) Search(ctx context.Context, name string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if name == "" || strings.Contains(user.Name, name) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Name, user.Name) {
			return nil, domain.ErrDuplicateName
		}
	}
	created := *user
	created.ID = r.nextID
	r.nextID++
	r.users[created.ID] = created
	return &created, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	updated := *user
	r.users[user.ID] = updated
	return &updated, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	delete(r.applicants, id)
	return nil
}

func (r *MemoryUserRepository) AddApplicant(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applicants[userID]; ok {
		return domain.ErrDuplicateApplication
	}
	r.applicants[userID] = struct{}{}
	return nil
}

func (r *MemoryUserRepository) RemoveApplicant(ctx context.Context, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applicants[userID]; !ok {
		return false, nil
	}
	delete(r.applicants, userID)
	return true, nil
}

func (r *MemoryUserRepository) ListApplicants(ctx context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.applicants))
	for id := range r.applicants {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (r *MemoryUserRepository) ListPartners(ctx context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0)
	for id, user := range r.users {
		if user.IsPartner {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out, nil
}

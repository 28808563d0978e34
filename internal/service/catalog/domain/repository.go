package domain

import "context"

// Repository is the catalog store port. It lives in the domain layer and is
// implemented by the infrastructure layer.
type Repository interface {
	Get(ctx context.Context, id int) (*Toy, error)
	List(ctx context.Context) ([]Toy, error)
	// Search returns toys whose name contains the given text.
	Search(ctx context.Context, name string) ([]Toy, error)
	// Create assigns the next id and stores the toy.
	Create(ctx context.Context, toy *Toy) (*Toy, error)
	Update(ctx context.Context, toy *Toy) (*Toy, error)
	Delete(ctx context.Context, id int) error

	// DecrementStock atomically subtracts qty from the toy's stock and returns
	// the new quantity. It fails with ErrInsufficientStock rather than ever
	// writing a negative value, and performs no write on any failure path.
	DecrementStock(ctx context.Context, id, qty int) (int, error)
}

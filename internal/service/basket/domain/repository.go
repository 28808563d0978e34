package domain

import "context"

// Repository is the basket store port.
type Repository interface {
	// Get returns the basket owned by the user, or ErrBasketNotFound.
	Get(ctx context.Context, userID int) (*Basket, error)
	// Create makes an empty basket for the user; creating twice is a no-op
	// returning the existing basket.
	Create(ctx context.Context, userID int) (*Basket, error)
	// AddLine merges the line into the user's basket.
	AddLine(ctx context.Context, userID int, line Line) (*Basket, error)
	// RemoveLine deletes the toy's line; ErrLineNotFound when absent.
	RemoveLine(ctx context.Context, userID, toyID int) (*Basket, error)
	// ListAll returns every basket, for catalog-change propagation.
	ListAll(ctx context.Context) ([]Basket, error)
	// Save persists a basket mutated in memory.
	Save(ctx context.Context, basket *Basket) error
}

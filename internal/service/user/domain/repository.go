package domain

import "context"

// Repository is the user store port. The pending-applicant set lives beside
// the users so the workflow can enforce the no-duplicate rule atomically.
type Repository interface {
	Get(ctx context.Context, id int) (*User, error)
	// GetByName resolves a user by name, case-insensitively.
	GetByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context) ([]User, error)
	// Search returns users whose name contains the given text.
	Search(ctx context.Context, name string) ([]User, error)
	// Create assigns the next id and stores the user.
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id int) error

	// AddApplicant records a pending application, failing with
	// ErrDuplicateApplication if one is already pending.
	AddApplicant(ctx context.Context, userID int) error
	// RemoveApplicant drops the pending application, reporting presence.
	RemoveApplicant(ctx context.Context, userID int) (bool, error)
	ListApplicants(ctx context.Context) ([]int, error)
	// ListPartners returns the ids of all partner users.
	ListPartners(ctx context.Context) ([]int, error)
}

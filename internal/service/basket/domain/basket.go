package domain

import (
	"errors"
	"fmt"

	catalog "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

var (
	// ErrBasketNotFound is returned when no basket exists for the user.
	ErrBasketNotFound = errors.New("basket not found")
	// ErrLineNotFound is returned when the basket holds no line for the toy.
	ErrLineNotFound = errors.New("basket line not found")
	// ErrInvalidQuantity is returned for non-positive requested quantities.
	ErrInvalidQuantity = errors.New("quantity must be >= 1")
)

// Line is one requested (toy, quantity) entry. Name and Cost are a
// denormalized snapshot of the toy at the time it was added.
type Line struct {
	ToyID    int    `json:"toyId"`
	Name     string `json:"name"`
	Cost     int    `json:"cost"`
	Quantity int    `json:"quantity"`
}

// Basket is the per-user collection of lines pending checkout. Its ID equals
// the owning user's ID. Line order is preserved for display only; at most one
// line exists per toy.
type Basket struct {
	ID    int    `json:"id"`
	Lines []Line `json:"basket"`
}

func NewBasket(userID int) *Basket {
	return &Basket{ID: userID, Lines: []Line{}}
}

// FindLine returns the line for the toy, or nil.
func (b *Basket) FindLine(toyID int) *Line {
	for i := range b.Lines {
		if b.Lines[i].ToyID == toyID {
			return &b.Lines[i]
		}
	}
	return nil
}

// AddLine merges the quantity into an existing line for the same toy, or
// appends a new line. Adding never duplicates a toy.
func (b *Basket) AddLine(line Line) error {
	if line.Quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, line.Quantity)
	}
	if existing := b.FindLine(line.ToyID); existing != nil {
		existing.Quantity += line.Quantity
		existing.Name = line.Name
		existing.Cost = line.Cost
		return nil
	}
	b.Lines = append(b.Lines, line)
	return nil
}

// RemoveLine deletes the line for the toy, reporting whether it was present.
func (b *Basket) RemoveLine(toyID int) bool {
	for i := range b.Lines {
		if b.Lines[i].ToyID == toyID {
			b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Total is the funding amount of the whole basket.
func (b *Basket) Total() int {
	total := 0
	for _, line := range b.Lines {
		total += line.Cost * line.Quantity
	}
	return total
}

// Snapshot copies the lines so a checkout works on an immutable view.
func (b *Basket) Snapshot() []Line {
	lines := make([]Line, len(b.Lines))
	copy(lines, b.Lines)
	return lines
}

// MaxAddable is the largest quantity of the toy that can still be added to
// this basket: the full stock when the toy is absent, otherwise the remaining
// stock capped at total stock, floored at zero. It is a pure upper bound for
// input validation; the reconciler re-validates authoritatively at commit.
func (b *Basket) MaxAddable(toy *catalog.Toy) int {
	max := toy.Quantity
	if line := b.FindLine(toy.ID); line != nil {
		max = toy.Quantity - line.Quantity
		if max > toy.Quantity {
			max = toy.Quantity
		}
	}
	if max < 0 {
		return 0
	}
	return max
}

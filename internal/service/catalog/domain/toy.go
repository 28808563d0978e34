package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToyNotFound is returned when no toy exists for the requested id.
	ErrToyNotFound = errors.New("toy not found")
	// ErrInsufficientStock is returned when a decrement would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidToy is returned when a toy fails input validation.
	ErrInvalidToy = errors.New("invalid toy")
)

// Toy is one catalog item. Quantity is the live stock count and must never
// go negative; every mutation path enforces that.
type Toy struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Cost     int    `json:"cost"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

// Validate rejects toys before any store call is attempted.
func (t *Toy) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidToy)
	}
	if t.Cost < 0 {
		return fmt.Errorf("%w: cost must be >= 0", ErrInvalidToy)
	}
	if t.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidToy)
	}
	return nil
}

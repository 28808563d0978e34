package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUserNotFound is returned when no user exists for the id or name.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUser is returned when a user fails input validation.
	ErrInvalidUser = errors.New("invalid user")
	// ErrDuplicateName is returned when the name is already taken.
	ErrDuplicateName = errors.New("user name already taken")
	// ErrDuplicateApplication is returned when the user already has a
	// pending partnership application.
	ErrDuplicateApplication = errors.New("partnership application already pending")
	// ErrAlreadyPartner is returned when the user already holds partner status.
	ErrAlreadyPartner = errors.New("user is already a partner")
	// ErrNotApplicant is returned when accepting a user who never applied.
	ErrNotApplicant = errors.New("user has no pending application")
)

// User is one account. IsPartner grants elevated privileges and only ever
// flips false to true, through the partnership workflow.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsPartner bool   `json:"isPartner"`
}

// Validate rejects users before any store call is attempted.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	return nil
}

// GrantPartner moves the user to partner status. The transition is one-way.
func (u *User) GrantPartner() error {
	if u.IsPartner {
		return ErrAlreadyPartner
	}
	u.IsPartner = true
	return nil
}

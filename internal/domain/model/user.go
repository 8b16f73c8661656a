package model

import (
	"strings"
	"time"

	"course-marketplace/internal/domain"
)

// Identity is the authenticated actor as supplied by the auth collaborator.
type Identity struct {
	UserID string
	Email  string
}

// RequireIdentity returns the identity or ErrUnauthenticated when absent.
func RequireIdentity(id *Identity) (Identity, error) {
	if id == nil || strings.TrimSpace(id.UserID) == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	return *id, nil
}

// User is the auth-owned account record. Membership is a mirror of the
// entitlement store kept in sync on approval.
type User struct {
	ID         string
	Email      string
	Name       string
	IsAdmin    bool
	CreatedAt  time.Time
	Membership *Membership
}

func NewUser(id, email, name string) (*User, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      name,
		CreatedAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

func (u *User) Identity() Identity { return Identity{UserID: u.ID, Email: u.Email} }

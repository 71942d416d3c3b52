package identity

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// Role is the closed set of caller roles. Dispatch on it exhaustively at the
// boundary; never compare raw strings elsewhere.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("identity: unknown role %q", s)
}

// CanManageBackOffice reports whether the role may touch products, customers
// and order administration.
func (r Role) CanManageBackOffice() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// LandingPath is where a caller goes right after login.
func LandingPath(r Role) string {
	switch r {
	case RoleCustomer:
		return "/orders/bulk"
	case RoleEmployee:
		return "/dashboard"
	case RoleAdmin:
		return "/admin"
	default:
		return "/login"
	}
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

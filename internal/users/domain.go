package users

import "time"

// Role enumerates the account roles.
type Role string

const (
	// RoleAdmin can manage the catalog and other accounts.
	RoleAdmin Role = "ADMIN"
	// RoleCustomer is the default shopper role.
	RoleCustomer Role = "CLIENTE"
)

// Status enumerates account lifecycle states.
type Status string

const (
	// StatusActive marks an account that may log in and purchase.
	StatusActive Status = "ACTIVO"
	// StatusInactive marks a disabled account.
	StatusInactive Status = "INACTIVO"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsActive reports whether the account may authenticate and purchase.
func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the authorisation level of an account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a customer or administrator account.
type User struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"nome" db:"nome"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"senha_hash"`
	Role         Role            `json:"role" db:"role"`
	Active       bool            `json:"ativo" db:"ativo"`
	Subscriber   bool            `json:"assinante" db:"assinante"`
	Cashback     decimal.Decimal `json:"cashbacktotal" db:"cashbacktotal"`
	ResetCode    *string         `json:"-" db:"reset_code"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CreateUserRequest represents the payload for registering an account.
type CreateUserRequest struct {
	Name       string `json:"nome"`
	Email      string `json:"email"`
	Password   string `json:"senha"`
	Role       Role   `json:"role,omitempty"`
	Active     *bool  `json:"ativo,omitempty"`
	Subscriber *bool  `json:"assinante,omitempty"`
}

// UserPatch is a partial update of an account; nil fields are left untouched.
type UserPatch struct {
	Name       *string `json:"nome,omitempty"`
	Email      *string `json:"email,omitempty"`
	Password   *string `json:"senha,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	Active     *bool   `json:"ativo,omitempty"`
	Subscriber *bool   `json:"assinante,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil &&
		p.Role == nil && p.Active == nil && p.Subscriber == nil
}

// LoginRequest represents the credentials posted to /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MeResponse describes the current session.
type MeResponse struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
}

// PasswordRecoveryRequest asks for a reset code to be e-mailed.
type PasswordRecoveryRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest exchanges a reset code for a new password.
type PasswordResetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"codigo"`
	NewPassword string `json:"novaSenha"`
}

package domain

import "time"

// User is a staff account (admin, doctor or receptionist). Staff have no
// device tokens: notifications addressed to them are dashboard-only.
type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Name         string     `json:"name" dynamodbav:"name"`
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	Branch       *string    `json:"branch,omitempty" dynamodbav:"branch"` // doctors only
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Caller is the authenticated identity the authorization layer hands to
// services: staff callers come from verified JWT claims, customer callers
// from the (asserted, unverified) public API identifier.
type Caller struct {
	ID     string
	Role   string
	Branch string // doctors only, empty otherwise
}

package domain

import "time"

// User is the identity record. Email is unique across all users (enforced at
// registration via the email GSI lookup plus a conditional put). PasswordHash
// never leaves the server. ResetToken and ResetTokenExpiresAt are either both
// set or both absent; they are cleared together when a reset token is consumed.
type User struct {
	UserID              string    `json:"id" dynamodbav:"user_id"`
	Email               string    `json:"email" dynamodbav:"email"`
	FirstName           string    `json:"first_name" dynamodbav:"first_name"`
	LastName            string    `json:"last_name" dynamodbav:"last_name"`
	PasswordHash        string    `json:"-" dynamodbav:"password_hash"`
	Verified            bool      `json:"verified" dynamodbav:"verified"`
	ResetToken          *string   `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetTokenExpiresAt *int64    `json:"-" dynamodbav:"reset_token_expires_at,omitempty"` // Unix seconds
	CreatedAt           time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt           time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	FirstName string `json:"firstname" validate:"required"`
	LastName  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CompleteResetRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

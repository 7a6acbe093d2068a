package domain

import "github.com/google/uuid"

// User is an account that owns notes. Password holds the bcrypt hash and
// is never serialized.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"-"`
	Email    string    `json:"email"`
}

package auth

import "time"

// Operator represents an account allowed to sign in to the auditor.
type Operator struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

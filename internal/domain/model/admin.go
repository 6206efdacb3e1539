package model

import "time"

// Admin is a back-office account. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
}

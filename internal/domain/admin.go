package domain

import "time"

// Admin is an account allowed to use the dashboard.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Admin *Admin `json:"admin"`
	Token string `json:"token"`
}

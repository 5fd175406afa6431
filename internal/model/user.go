package model

import "time"

// Admin roles carried in the access token's role claim.
const (
	RoleAdmin  = "ADMIN"
	RoleViewer = "VIEWER"
)

// AdminUser is an account in `admin_users`.  These are the people allowed
// to use the admin API; they are unrelated to the streaming overlay's
// `users` table.
type AdminUser struct {
	ID           uint64    // admin_users.id
	Email        string    // admin_users.email
	PasswordHash string    // admin_users.password_hash
	Role         string    // ADMIN or VIEWER
	IsActive     bool      // admin_users.is_active
	CreatedAt    time.Time // admin_users.created_at
	UpdatedAt    time.Time // admin_users.updated_at
}

// RefreshToken models a row in `refresh_tokens`.  Only the SHA-256 hex of
// the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

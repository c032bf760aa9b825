package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Users are their own identity: they sign up with an
// email and password (or through an OAuth provider) and receive JWT
// access tokens.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – name of the role (CUSTOMER or ADMIN).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// DisplayName returns the part of the email before the "@".  It is used
// as the default comment author name.
func (u User) DisplayName() string {
    for i := 0; i < len(u.Email); i++ {
        if u.Email[i] == '@' {
            return u.Email[:i]
        }
    }
    return u.Email
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// Roles accepted in JWT role claims.
const (
    RoleCustomer = "CUSTOMER"
    RoleAdmin    = "ADMIN"
)

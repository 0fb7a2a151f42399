package model

import "time"

// Role names carried in the users.roles column and in JWT claims.
const (
	RoleCustomer = "CUSTOMER"
	RoleManager  = "RESTAURANT_MANAGER"
	RoleAdmin    = "ADMIN"
)

// KnownRole reports whether r is one of the three application roles.
func KnownRole(r string) bool {
	return r == RoleCustomer || r == RoleManager || r == RoleAdmin
}

// User represents an application account as stored in the `users`
// table. A user holds one or more roles; admins can add and remove
// roles but a user always keeps at least one. The json tags are
// omitted because handlers define their own response types.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address, lower-cased.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name, used in email greetings.
//  LastName     – family name.
//  PhoneNumber  – optional contact phone.
//  Roles        – role names (stored comma separated).
//  Enabled      – disabled accounts cannot authenticate.
//  LastLogin    – last successful login (nil before first login).
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	FirstName    string     // users.first_name
	LastName     string     // users.last_name
	PhoneNumber  string     // users.phone_number
	Roles        []string   // users.roles (CSV)
	Enabled      bool       // users.enabled
	LastLogin    *time.Time // users.last_login (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RefreshToken models a row in `refresh_tokens`. Only the SHA-256
// hash of the issued token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

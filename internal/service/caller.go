package service

import "github.com/nace129/booktable/internal/model"

// Caller identifies the authenticated user on whose behalf a service
// operation runs. Handlers build it from verified JWT claims and pass
// it explicitly; services never consult global request state.
type Caller struct {
	ID    uint64
	Roles []string
}

// Is reports whether the caller carries the given role.
func (c Caller) Is(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for Is(model.RoleAdmin).
func (c Caller) IsAdmin() bool { return c.Is(model.RoleAdmin) }

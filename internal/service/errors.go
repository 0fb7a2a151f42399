// Package service holds the business core: the availability engine,
// the booking lifecycle, review/rating handling, admin operations and
// the scheduled sweeps. Services depend on narrow store interfaces
// satisfied by the repository layer and take the authenticated caller
// as an explicit argument; nothing in here reads ambient identity.
package service

import "errors"

// The four business error kinds. Service operations wrap these with
// fmt.Errorf("%w: ...") so handlers can classify with errors.Is while
// keeping a useful message. Storage failures are never wrapped into
// these kinds; they propagate as-is and surface as 500s.
var (
	// ErrNotFound: an entity id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a unique field collided (duplicate email, duplicate review).
	ErrConflict = errors.New("conflict")
	// ErrInvalidRequest: a business rule was violated (past-dated
	// reservation, no free table, already-cancelled reservation, ...).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPermissionDenied: the caller is authenticated but not
	// authorized for the target entity.
	ErrPermissionDenied = errors.New("permission denied")
)

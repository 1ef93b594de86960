// Package authz centralizes every visibility and ownership decision for
// diary records. Handlers never branch on roles themselves; they ask this
// package so the read, update and delete paths cannot drift apart.
package authz

import "github.com/k0723/mini3/internal/models"

// Caller describes the identity a request acts as. A zero Caller is an
// anonymous visitor. Role is always re-read from the users table for the
// current request, never taken from a token.
type Caller struct {
	ID            int
	Role          string
	Authenticated bool
}

func (c Caller) IsAdmin() bool {
	return c.Authenticated && c.Role == models.RoleAdmin
}

// CanView reports whether the caller may read a single diary entry.
// Public entries are readable by anyone; private entries only by their
// owner or an admin.
func CanView(c Caller, ownerID int, isPublic bool) bool {
	if isPublic {
		return true
	}
	if c.IsAdmin() {
		return true
	}
	return c.Authenticated && c.ID == ownerID
}

// CanModify reports whether the caller may update or delete a diary entry.
func CanModify(c Caller, ownerID int) bool {
	if c.IsAdmin() {
		return true
	}
	return c.Authenticated && c.ID == ownerID
}

// ListFilter builds the WHERE fragment restricting a collection read to the
// rows the caller is allowed to see. state is the caller-requested
// visibility filter (nil = unspecified). When empty is true the allowed set
// is provably empty and no query should run.
func ListFilter(c Caller, state *bool) (where string, args []interface{}, empty bool) {
	if state == nil {
		switch {
		case c.IsAdmin():
			return "", nil, false
		case c.Authenticated:
			return "WHERE (d.user_id = $1 OR d.is_public = true)", []interface{}{c.ID}, false
		default:
			return "WHERE d.is_public = true", nil, false
		}
	}

	if *state {
		// Public listing is identical for every caller.
		return "WHERE d.is_public = true", nil, false
	}

	switch {
	case c.IsAdmin():
		return "WHERE d.is_public = false", nil, false
	case c.Authenticated:
		return "WHERE d.user_id = $1 AND d.is_public = false", []interface{}{c.ID}, false
	default:
		return "", nil, true
	}
}

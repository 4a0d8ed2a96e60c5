// Package policy is the single authorization checkpoint for catalog
// writes. Every mutating entry point (form or API) asks Authorize with
// the request principal, the action and the resource type; read actions
// are open to anonymous callers.
package policy

import (
	"errors"

	"github.com/diewo77/librairie/internal/models"
)

// Action describes the kind of operation a principal wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource types known to the policy.
const (
	ResourceBook     = "book"
	ResourceCategory = "category"
	ResourceAuthor   = "author"
)

// Safe reports whether the action is read-only.
func (a Action) Safe() bool { return a == ActionView || a == ActionList }

// Principal is the authenticated identity bound to a request. A nil
// principal is an anonymous visitor.
type Principal struct {
	UserID uint
	Role   string
}

// FromUser builds the principal for a loaded user record.
func FromUser(u *models.User) *Principal {
	if u == nil {
		return nil
	}
	return &Principal{UserID: u.ID, Role: u.Role}
}

// ErrForbidden is returned for any denied action.
var ErrForbidden = errors.New("forbidden")

// Authorize allows safe actions for everyone and unsafe actions for
// administrators only. The resource argument exists so finer-grained
// rules can be added per type without touching call sites.
func Authorize(p *Principal, action Action, resource string) error {
	if action.Safe() {
		return nil
	}
	if p == nil || p.Role != models.RoleAdmin {
		return ErrForbidden
	}
	switch resource {
	case ResourceBook, ResourceCategory, ResourceAuthor:
		return nil
	default:
		return ErrForbidden
	}
}

// Can is a convenience wrapper returning bool instead of error.
func Can(p *Principal, action Action, resource string) bool {
	return Authorize(p, action, resource) == nil
}

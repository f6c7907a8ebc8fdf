package authz

import "errors"

// ErrUnauthorized is returned whenever no rule allows the action.
var ErrUnauthorized = errors.New("unauthorized")

// Actor is the authenticated caller as seen by the guard.
type Actor struct {
	ID   string
	Role string
}

// Resource is the target of an action. OwnerID is empty for resources
// without an owner.
type Resource struct {
	OwnerID string
}

type Action string

const (
	// ActionReadPublic covers reads anyone may perform: approved
	// comments and public listings.
	ActionReadPublic Action = "read_public"
	ActionRead       Action = "read"
	ActionMutate     Action = "mutate"
	ActionDelete     Action = "delete"
)

// Authorize decides whether actor may perform action on resource.
// Rules are evaluated in order; nil means allow. It is the single
// decision point for ownership and role checks.
func Authorize(actor Actor, resource Resource, action Action) error {
	if action == ActionReadPublic {
		return nil
	}
	if actor.Role == "admin" {
		return nil
	}
	if resource.OwnerID != "" && resource.OwnerID == actor.ID {
		return nil
	}
	return ErrUnauthorized
}

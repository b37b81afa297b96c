package rbac

import "errors"

var (
	// ErrRoleNotFound is returned when a named role is not registered.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrRoleExists is returned when creating a role whose name is taken.
	ErrRoleExists = errors.New("rbac: role already exists")
	// ErrCycle is returned when a parent assignment would close a loop in
	// the role tree. Checked at link creation, never during resolution.
	ErrCycle = errors.New("rbac: parent assignment would create a cycle")
	// ErrHasChildren is returned when deleting a role that is still the
	// parent of other roles; callers must reparent children first.
	ErrHasChildren = errors.New("rbac: role has child roles")
	// ErrInvalidResource is returned for a resource type outside the enum.
	ErrInvalidResource = errors.New("rbac: invalid resource type")
	// ErrInvalidAction is returned for an action outside the defined bits.
	ErrInvalidAction = errors.New("rbac: invalid action")
)

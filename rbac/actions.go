package rbac

import "strings"

// ResourceType identifies a protected resource class.
//
// ResourceType instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type ResourceType string

const (
	// ResourceUserManagement is an exported constant used by the permission engine.
	ResourceUserManagement ResourceType = "user_management"
	// ResourceTransaction is an exported constant used by the permission engine.
	ResourceTransaction ResourceType = "transaction"
	// ResourceAccount is an exported constant used by the permission engine.
	ResourceAccount ResourceType = "account"
	// ResourceAuditLog is an exported constant used by the permission engine.
	ResourceAuditLog ResourceType = "audit_log"
	// ResourceSystemConfig is an exported constant used by the permission engine.
	ResourceSystemConfig ResourceType = "system_config"
)

// Valid reports whether r is one of the defined resource types.
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceUserManagement, ResourceTransaction, ResourceAccount, ResourceAuditLog, ResourceSystemConfig:
		return true
	}
	return false
}

// Action is a bitmask over the defined operations.
type Action uint8

const (
	// ActionCreate is an exported constant used by the permission engine.
	ActionCreate Action = 1 << iota
	// ActionRead is an exported constant used by the permission engine.
	ActionRead
	// ActionUpdate is an exported constant used by the permission engine.
	ActionUpdate
	// ActionDelete is an exported constant used by the permission engine.
	ActionDelete
	// ActionApprove is an exported constant used by the permission engine.
	ActionApprove

	actionAll = ActionCreate | ActionRead | ActionUpdate | ActionDelete | ActionApprove
)

// Valid reports whether a is a single defined action bit.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove:
		return true
	}
	return false
}

// Has reports whether every bit of action is set in a.
func (a Action) Has(action Action) bool {
	return a&action == action
}

// String renders the set bits as a pipe-joined list, e.g. "create|read".
func (a Action) String() string {
	names := []struct {
		bit  Action
		name string
	}{
		{ActionCreate, "create"},
		{ActionRead, "read"},
		{ActionUpdate, "update"},
		{ActionDelete, "delete"},
		{ActionApprove, "approve"},
	}

	var parts []string
	for _, n := range names {
		if a.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

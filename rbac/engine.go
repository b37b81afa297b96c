package rbac

import (
	"strings"
	"sync"
)

// Permission grants a set of actions on one resource type, optionally
// carrying constraints for caller-side predicate checks.
type Permission struct {
	Resource    ResourceType
	Actions     Action
	Constraints map[string]any
}

// Role is a named permission grouping with an optional parent. The zero
// Parent means the role is a root of its tree.
type Role struct {
	Name        string
	Description string
	Parent      string
	Permissions []Permission
}

// Engine is the in-process permission resolver: an index of roles keyed by
// name with explicit parent identifiers, guarded by a single RWMutex.
// Resolution is CPU-only and never blocks on I/O.
//
// Engine instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise; administrative
// mutations take the write lock.
type Engine struct {
	mu    sync.RWMutex
	roles map[string]*Role
}

// NewEngine constructs an empty Engine.
func NewEngine() *Engine {
	return &Engine{
		roles: make(map[string]*Role),
	}
}

// CreateRole registers a new role. parent may be empty; a non-empty parent
// must already exist.
func (e *Engine) CreateRole(name, description, parent string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrRoleNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.roles[name]; exists {
		return ErrRoleExists
	}
	if parent != "" {
		if _, ok := e.roles[parent]; !ok {
			return ErrRoleNotFound
		}
	}

	e.roles[name] = &Role{
		Name:        name,
		Description: description,
		Parent:      parent,
	}
	return nil
}

// SetParent rewires a role's parent link. The assignment is rejected with
// ErrCycle when the new parent's ancestor chain already contains the role;
// the check is a bounded visited-set walk performed here so that
// HasPermission never needs one.
func (e *Engine) SetParent(name, parent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	role, ok := e.roles[name]
	if !ok {
		return ErrRoleNotFound
	}
	if parent == "" {
		role.Parent = ""
		return nil
	}
	if _, ok := e.roles[parent]; !ok {
		return ErrRoleNotFound
	}
	if parent == name {
		return ErrCycle
	}

	visited := map[string]struct{}{name: {}}
	for cursor := parent; cursor != ""; {
		if _, seen := visited[cursor]; seen {
			return ErrCycle
		}
		visited[cursor] = struct{}{}
		next, ok := e.roles[cursor]
		if !ok {
			break
		}
		cursor = next.Parent
	}

	role.Parent = parent
	return nil
}

// DeleteRole removes a role. Deletion is rejected while other roles still
// name it as their parent, preventing orphaned inheritance.
func (e *Engine) DeleteRole(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.roles[name]; !ok {
		return ErrRoleNotFound
	}
	for _, role := range e.roles {
		if role.Parent == name {
			return ErrHasChildren
		}
	}
	delete(e.roles, name)
	return nil
}

// GetRole returns a copy of the named role.
func (e *Engine) GetRole(name string) (Role, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	role, ok := e.roles[name]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return cloneRole(role), nil
}

// AddPermission grants actions on resource to the role, merging into an
// existing permission for the same resource type. Setting an already-set bit
// is a no-op. When constraints is non-nil it replaces the permission's
// constraint map.
func (e *Engine) AddPermission(roleName string, resource ResourceType, actions Action, constraints map[string]any) error {
	if !resource.Valid() {
		return ErrInvalidResource
	}
	if actions&^actionAll != 0 {
		return ErrInvalidAction
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	role, ok := e.roles[roleName]
	if !ok {
		return ErrRoleNotFound
	}

	for i := range role.Permissions {
		if role.Permissions[i].Resource != resource {
			continue
		}
		role.Permissions[i].Actions |= actions
		if constraints != nil {
			role.Permissions[i].Constraints = cloneConstraints(constraints)
		}
		return nil
	}

	role.Permissions = append(role.Permissions, Permission{
		Resource:    resource,
		Actions:     actions & actionAll,
		Constraints: cloneConstraints(constraints),
	})
	return nil
}

// RemovePermission clears actions on resource from the role. Clearing an
// already-clear bit is a no-op; a permission whose bitmask reaches zero is
// dropped entirely.
func (e *Engine) RemovePermission(roleName string, resource ResourceType, actions Action) error {
	if !resource.Valid() {
		return ErrInvalidResource
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	role, ok := e.roles[roleName]
	if !ok {
		return ErrRoleNotFound
	}

	for i := range role.Permissions {
		if role.Permissions[i].Resource != resource {
			continue
		}
		role.Permissions[i].Actions &^= actions
		if role.Permissions[i].Actions == 0 {
			role.Permissions = append(role.Permissions[:i], role.Permissions[i+1:]...)
		}
		return nil
	}
	return nil
}

// GetPermissions returns the role's own permissions; with includeInherited
// it appends each ancestor's permissions walking nearest-ancestor first.
func (e *Engine) GetPermissions(roleName string, includeInherited bool) ([]Permission, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	role, ok := e.roles[roleName]
	if !ok {
		return nil, ErrRoleNotFound
	}

	perms := clonePermissions(role.Permissions)
	if !includeInherited {
		return perms, nil
	}

	for cursor := role.Parent; cursor != ""; {
		parent, ok := e.roles[cursor]
		if !ok {
			// Broken link: stop the walk rather than invent grants.
			break
		}
		perms = append(perms, clonePermissions(parent.Permissions)...)
		cursor = parent.Parent
	}
	return perms, nil
}

// HasPermission reports whether any of the principal's directly assigned
// roles, or any ancestor of them, grants action on resource. Unknown roles
// contribute nothing; every anomaly resolves to deny.
func (e *Engine) HasPermission(roleNames []string, resource ResourceType, action Action) bool {
	if !resource.Valid() || !action.Valid() {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, name := range roleNames {
		for cursor := name; cursor != ""; {
			role, ok := e.roles[cursor]
			if !ok {
				break
			}
			for _, perm := range role.Permissions {
				if perm.Resource == resource && perm.Actions.Has(action) {
					return true
				}
			}
			cursor = role.Parent
		}
	}
	return false
}

// Roles returns the registered role names. Order is unspecified.
func (e *Engine) Roles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.roles))
	for name := range e.roles {
		names = append(names, name)
	}
	return names
}

func cloneRole(role *Role) Role {
	out := *role
	out.Permissions = clonePermissions(role.Permissions)
	return out
}

func clonePermissions(perms []Permission) []Permission {
	if perms == nil {
		return nil
	}
	out := make([]Permission, len(perms))
	for i, p := range perms {
		out[i] = p
		out[i].Constraints = cloneConstraints(p.Constraints)
	}
	return out
}

func cloneConstraints(constraints map[string]any) map[string]any {
	if constraints == nil {
		return nil
	}
	out := make(map[string]any, len(constraints))
	for k, v := range constraints {
		out[k] = v
	}
	return out
}

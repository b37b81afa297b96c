package rbac

// GuardFunc is the composable allow/deny check consumed by an external
// routing layer: deny before executing a handler unless the principal's
// roles hold the required action on the required resource type. Status-code
// mapping belongs to that layer, not to this package.
type GuardFunc func(roles []string, resource ResourceType, action Action) bool

// Guard returns a GuardFunc bound to engine.
func Guard(engine *Engine) GuardFunc {
	return func(roles []string, resource ResourceType, action Action) bool {
		if engine == nil {
			return false
		}
		return engine.HasPermission(roles, resource, action)
	}
}

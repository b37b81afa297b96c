// Package rbac resolves hierarchical role-based permissions.
//
// Roles form a tree through parent links; permissions attach to roles as
// per-resource action bitmasks. Resolution walks each of a principal's roles
// up the parent chain and unions the action bits found for the requested
// resource type. The walk is always finite because acyclicity is enforced
// when a parent link is written, never re-checked at query time.
//
// Permission constraints are exposed to callers for request-side predicate
// checks via [CheckConstraints]; [Engine.HasPermission] answers only the
// action-bit question and never evaluates constraints itself.
//
// # What this package must NOT do
//
//   - Default-allow on any internal anomaly; unknown roles and broken parent
//     links resolve to deny.
//   - Delete a role that still has children.
package rbac

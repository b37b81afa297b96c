package bankguard

import (
	"context"

	"github.com/darvenko/bankguard/rbac"
)

// CheckPermission verifies the presented access token and resolves whether
// its role snapshot grants action on resource. Denials append a
// permission_denied ledger entry; allowed checks leave auditing of the
// ensuing operation to its owner.
//
// Any anomaly in verification or resolution denies. Only a nil return
// authorizes the caller to proceed.
func (e *Engine) CheckPermission(ctx context.Context, token string, resource rbac.ResourceType, action rbac.Action) (TokenInfo, error) {
	if e == nil {
		return TokenInfo{}, ErrEngineNotReady
	}

	info, err := e.VerifyToken(ctx, token)
	if err != nil {
		return TokenInfo{}, err
	}

	if !e.permissions.HasPermission(info.Roles, resource, action) {
		e.metrics.Inc(MetricPermissionDenied)
		if aerr := e.audit(ctx, info.PrincipalID, auditPermissionDenied, string(resource)+":"+action.String(), nil); aerr != nil {
			return TokenInfo{}, aerr
		}
		return TokenInfo{}, ErrPermissionDenied
	}

	e.metrics.Inc(MetricPermissionAllowed)
	return info, nil
}

// Guard adapts the engine's role hierarchy to the [rbac.GuardFunc] contract
// consumed by routing layers.
func (e *Engine) Guard() rbac.GuardFunc {
	if e == nil {
		return rbac.Guard(nil)
	}
	return rbac.Guard(e.permissions)
}

package bankguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darvenko/bankguard/encryption"
	"github.com/darvenko/bankguard/internal/rate"
	"github.com/darvenko/bankguard/jwt"
	"github.com/darvenko/bankguard/ledger"
	"github.com/darvenko/bankguard/password"
	"github.com/darvenko/bankguard/rbac"
	"github.com/darvenko/bankguard/revocation"
)

// Audit action vocabulary. Every security-relevant engine event appends
// exactly one ledger entry with one of these actions.
const (
	auditLoginSuccess     = "login_success"
	auditLoginFailed      = "login_failed"
	auditLoginThrottled   = "login_throttled"
	auditMFARequired      = "mfa_required"
	auditMFAFailed        = "mfa_failed"
	auditTokenRefreshed   = "token_refreshed"
	auditRefreshFailed    = "refresh_failed"
	auditTokenRevoked     = "token_revoked"
	auditRevokeFailed     = "revoke_failed"
	auditPermissionDenied = "permission_denied"
	auditPrincipalRetired = "principal_retired"
)

// Engine defines a public type used by bankguard APIs.
//
// Engine instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise. All methods are safe
// for concurrent use.
type Engine struct {
	config Config

	users       UserProvider
	crypto      *encryption.Service
	ledger      *ledger.Ledger
	permissions *rbac.Engine
	tokens      *jwt.Manager
	passwords   *password.Hasher
	totp        *totpManager
	revocations revocation.Set
	limiter     *rate.Limiter
	metrics     *Metrics

	// now is replaced in tests to exercise expiry windows.
	now func() time.Time
}

// Permissions returns the role hierarchy for runtime administration. The
// returned engine is the live instance, not a copy.
func (e *Engine) Permissions() *rbac.Engine {
	if e == nil {
		return nil
	}
	return e.permissions
}

// Ledger returns the audit ledger so callers can append entries for their
// own privileged operations and run integrity sweeps.
func (e *Engine) Ledger() *ledger.Ledger {
	if e == nil {
		return nil
	}
	return e.ledger
}

// Crypto exposes the encryption service for file and field encryption
// outside the engine's own flows.
func (e *Engine) Crypto() *encryption.Service {
	if e == nil {
		return nil
	}
	return e.crypto
}

// Metrics returns the engine's counter set.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters. Exporters
// poll this instead of reading counters directly.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// VerifyToken validates an access token: signature, expiry, type, and
// revocation. A revocation-backend failure denies rather than skipping the
// check.
func (e *Engine) VerifyToken(ctx context.Context, token string) (TokenInfo, error) {
	if e == nil {
		return TokenInfo{}, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseTyped(token, jwt.TypeAccess)
	if err != nil {
		return TokenInfo{}, mapTokenError(err)
	}

	revoked, err := e.revocations.Contains(ctx, claims.ID)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("revocation check failed: %w", err)
	}
	if revoked {
		e.metrics.Inc(MetricRevokedTokenReplay)
		return TokenInfo{}, ErrTokenRevoked
	}

	return TokenInfo{
		PrincipalID: claims.Subject,
		Roles:       append([]string(nil), claims.Roles...),
		MFAVerified: claims.MFAVerified,
		JTI:         claims.ID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// GenerateMFASecret creates a fresh TOTP secret and the otpauth://
// provisioning URI for the given account label. Persisting the secret on the
// principal record is the caller's responsibility.
func (e *Engine) GenerateMFASecret(account string) ([]byte, string, error) {
	if e == nil {
		return nil, "", ErrEngineNotReady
	}

	raw, encoded, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, "", err
	}
	return raw, e.totp.ProvisionURI(encoded, account), nil
}

// RetirePrincipal soft-retires a principal through the [UserProvider] and
// appends the retirement to the ledger. The retirement stands even if the
// ledger append fails; the returned error reports the missing audit trail.
func (e *Engine) RetirePrincipal(ctx context.Context, actorID, principalID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.users.Retire(ctx, principalID); err != nil {
		return err
	}

	if _, err := e.ledger.LogActivity(ctx, actorID, auditPrincipalRetired, "user:"+principalID, nil); err != nil {
		e.metrics.Inc(MetricLedgerAppendFailure)
		return errors.Join(ErrAuditUnavailable, err)
	}
	return nil
}

// audit appends one ledger entry and converts an append failure into the
// fail-closed ErrAuditUnavailable.
func (e *Engine) audit(ctx context.Context, principalID, action, resource string, sensitive map[string]any) error {
	if _, err := e.ledger.LogActivity(ctx, principalID, action, resource, sensitive); err != nil {
		e.metrics.Inc(MetricLedgerAppendFailure)
		return errors.Join(ErrAuditUnavailable, err)
	}
	return nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

package bankguard

import (
	"context"
	"time"

	"github.com/darvenko/bankguard/jwt"
)

// Refresh exchanges a valid refresh token for a new access token. Roles are
// re-resolved from the [UserProvider] at refresh time, so a role change or
// retirement takes effect on the next refresh rather than waiting out the
// refresh TTL.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseTyped(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return TokenPair{}, e.failRefresh(ctx, "", mapTokenError(err))
	}

	revoked, err := e.revocations.Contains(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if revoked {
		e.metrics.Inc(MetricRevokedTokenReplay)
		return TokenPair{}, e.failRefresh(ctx, claims.Subject, ErrTokenRevoked)
	}

	user, err := e.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, e.failRefresh(ctx, claims.Subject, ErrPrincipalNotFound)
	}
	if user.Status != PrincipalActive {
		return TokenPair{}, e.failRefresh(ctx, claims.Subject, ErrPrincipalRetired)
	}

	access, err := e.tokens.Mint(jwt.TypeAccess, user.ID, user.Roles, claims.MFAVerified, e.now())
	if err != nil {
		return TokenPair{}, err
	}

	if aerr := e.audit(ctx, user.ID, auditTokenRefreshed, "user:"+user.ID, nil); aerr != nil {
		return TokenPair{}, aerr
	}

	e.metrics.Inc(MetricRefreshSuccess)
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    e.tokens.AccessTTL(),
	}, nil
}

// Revoke invalidates a token before its natural expiry by adding its jti to
// the revocation set for the token's remaining lifetime. Works for access
// and refresh tokens alike.
func (e *Engine) Revoke(ctx context.Context, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(token)
	if err != nil {
		mapped := mapTokenError(err)
		if aerr := e.audit(ctx, "", auditRevokeFailed, "", nil); aerr != nil {
			return aerr
		}
		return mapped
	}

	// Retain the entry slightly past expiry so verifier leeway cannot
	// outlive revocation.
	ttl := time.Until(claims.ExpiresAt.Time) + e.config.JWT.Leeway
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := e.revocations.Add(ctx, claims.ID, ttl); err != nil {
		return err
	}

	if aerr := e.audit(ctx, claims.Subject, auditTokenRevoked, "jti:"+claims.ID, nil); aerr != nil {
		return aerr
	}

	e.metrics.Inc(MetricTokenRevoked)
	return nil
}

func (e *Engine) mintPair(user PrincipalRecord, mfaVerified bool) (TokenPair, error) {
	now := e.now()

	access, err := e.tokens.Mint(jwt.TypeAccess, user.ID, user.Roles, mfaVerified, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := e.tokens.Mint(jwt.TypeRefresh, user.ID, user.Roles, mfaVerified, now)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    e.tokens.AccessTTL(),
	}, nil
}

func (e *Engine) failRefresh(ctx context.Context, principalID string, cause error) error {
	e.metrics.Inc(MetricRefreshFailure)
	if aerr := e.audit(ctx, principalID, auditRefreshFailed, "", nil); aerr != nil {
		return aerr
	}
	return cause
}

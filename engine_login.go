package bankguard

import (
	"context"
	"errors"

	"github.com/darvenko/bankguard/internal/rate"
)

// Authenticate verifies a username/password pair and, when the principal has
// MFA enabled, a TOTP code. On full success it issues an access/refresh
// token pair carrying the principal's current role snapshot.
//
// Every attempt appends exactly one ledger entry: login_success, login_failed,
// mfa_required, mfa_failed, or login_throttled. Failure entries never include
// the submitted password or code. If the ledger append fails the attempt
// fails with ErrAuditUnavailable and no tokens are issued.
func (e *Engine) Authenticate(ctx context.Context, username, passwd, otp string) (AuthResult, error) {
	if e == nil {
		return AuthResult{}, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	resource := "user:" + username

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, username, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metrics.Inc(MetricLoginRateLimited)
				if aerr := e.audit(ctx, "", auditLoginThrottled, resource, nil); aerr != nil {
					return AuthResult{}, aerr
				}
				return AuthResult{}, ErrLoginRateLimited
			}
			return AuthResult{}, err
		}
	}

	user, err := e.users.GetByUsername(ctx, username)
	if err != nil {
		// Unknown principals take the same failure path as bad passwords so
		// the response does not reveal account existence.
		return AuthResult{}, e.failLogin(ctx, username, ip, ErrInvalidCredentials)
	}

	if user.Status != PrincipalActive {
		return AuthResult{}, e.failLogin(ctx, username, ip, ErrPrincipalRetired)
	}

	ok, err := e.passwords.Verify(passwd, user.PasswordHash)
	if err != nil || !ok {
		// A malformed stored hash (e.g. an invalidated credential) is
		// indistinguishable from a wrong password to the caller.
		return AuthResult{}, e.failLogin(ctx, username, ip, ErrInvalidCredentials)
	}

	mfaVerified := false
	if user.MFAEnabled {
		if otp == "" {
			e.metrics.Inc(MetricMFARequired)
			if aerr := e.audit(ctx, user.ID, auditMFARequired, resource, nil); aerr != nil {
				return AuthResult{}, aerr
			}
			return AuthResult{MFARequired: true}, ErrMFARequired
		}

		valid, verr := e.totp.VerifyCode(user.MFASecret, otp, e.now())
		if verr != nil {
			return AuthResult{}, verr
		}
		if !valid {
			e.metrics.Inc(MetricMFAFailure)
			if e.limiter != nil {
				if lerr := e.limiter.IncrementLogin(ctx, username, ip); lerr != nil && !errors.Is(lerr, rate.ErrRateLimited) {
					return AuthResult{}, lerr
				}
			}
			if aerr := e.audit(ctx, user.ID, auditMFAFailed, resource, nil); aerr != nil {
				return AuthResult{}, aerr
			}
			return AuthResult{}, ErrOTPInvalid
		}

		e.metrics.Inc(MetricMFASuccess)
		mfaVerified = true
	}

	tokens, err := e.mintPair(user, mfaVerified)
	if err != nil {
		return AuthResult{}, err
	}

	if aerr := e.audit(ctx, user.ID, auditLoginSuccess, resource, nil); aerr != nil {
		return AuthResult{}, aerr
	}

	if e.limiter != nil {
		// Counter reset is best-effort; a stale counter only shortens the
		// budget, never widens it.
		_ = e.limiter.ResetLogin(ctx, username, ip)
	}

	e.metrics.Inc(MetricLoginSuccess)
	return AuthResult{Tokens: tokens}, nil
}

// failLogin records a failed attempt: limiter increment, metric, and an
// anonymous login_failed ledger entry keyed by the attempted username.
func (e *Engine) failLogin(ctx context.Context, username, ip string, cause error) error {
	e.metrics.Inc(MetricLoginFailure)

	if e.limiter != nil {
		if err := e.limiter.IncrementLogin(ctx, username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
			return err
		}
	}

	if aerr := e.audit(ctx, "", auditLoginFailed, "user:"+username, nil); aerr != nil {
		return aerr
	}
	return cause
}

package bankguard

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the security engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidCredentials is an exported constant or variable used by the security engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound is an exported constant or variable used by the security engine.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalRetired is an exported constant or variable used by the security engine.
	ErrPrincipalRetired = errors.New("principal retired")
	// ErrMFARequired is returned by Authenticate when the principal has MFA
	// enabled and no OTP was supplied. No tokens are issued.
	ErrMFARequired = errors.New("mfa required")
	// ErrOTPInvalid is an exported constant or variable used by the security engine.
	ErrOTPInvalid = errors.New("invalid otp code")
	// ErrTokenInvalid is an exported constant or variable used by the security engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an exported constant or variable used by the security engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is an exported constant or variable used by the security engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrPermissionDenied distinguishes an authenticated but unauthorized
	// caller from the authentication failures above.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrLoginRateLimited is an exported constant or variable used by the security engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAuditUnavailable wraps a ledger append failure; the operation that
	// could not be audited has not completed.
	ErrAuditUnavailable = errors.New("audit ledger unavailable")
)

// IsAuthError reports whether err belongs to the authentication failure
// family (bad credential, bad OTP, expired or revoked token), as opposed to
// ErrPermissionDenied or an internal failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrPrincipalRetired) ||
		errors.Is(err, ErrMFARequired) ||
		errors.Is(err, ErrOTPInvalid) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked)
}

package bankguard

import (
	"context"
	"time"
)

// PrincipalStatus represents the lifecycle state of a principal account.
//
//	active → retired (soft-retire: roles cleared, credential invalidated)
type PrincipalStatus uint8

const (
	// PrincipalActive is an exported constant or variable used by the security engine.
	PrincipalActive PrincipalStatus = iota
	// PrincipalRetired is an exported constant or variable used by the security engine.
	PrincipalRetired
)

// PrincipalRecord is the full account record returned by [UserProvider]. It
// carries the credential hash, the directly assigned role names (never the
// inherited closure), and the optional MFA secret.
type PrincipalRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
	MFAEnabled   bool
	// MFASecret is the raw TOTP secret. Present only when MFAEnabled.
	MFASecret []byte
	Status    PrincipalStatus
}

// UserProvider is the interface callers implement to integrate bankguard
// with their principal database. Principals are never deleted; Retire clears
// the role set and invalidates the credential so the record stays available
// to the audit trail.
type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (PrincipalRecord, error)
	GetByID(ctx context.Context, id string) (PrincipalRecord, error)
	Retire(ctx context.Context, id string) error
}

// TokenPair is the credential set issued at authentication and refresh.
// ExpiresIn is the fixed access-token lifetime resolved once from
// configuration.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AuthResult is returned by [Engine.Authenticate]. When MFARequired is set
// the credential was valid but the principal has MFA enabled and no OTP was
// supplied; no tokens are issued in that state.
type AuthResult struct {
	MFARequired bool
	Tokens      TokenPair
}

// TokenInfo is the verified view of a presented token.
type TokenInfo struct {
	PrincipalID string
	Roles       []string
	MFAVerified bool
	JTI         string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

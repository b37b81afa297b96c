package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod defines a public type used by bankguard APIs.
//
// SigningMethod instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type SigningMethod string

const (
	// MethodHS256 is an exported constant used by the token manager.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 is an exported constant used by the token manager.
	MethodEd25519 SigningMethod = "ed25519"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	// TypeAccess is an exported constant used by the token manager.
	TypeAccess TokenType = "access"
	// TypeRefresh is an exported constant used by the token manager.
	TypeRefresh TokenType = "refresh"
)

var (
	// ErrTokenInvalid is returned for any signature, structure, or claim
	// failure that is not expiry.
	ErrTokenInvalid = errors.New("jwt: invalid token")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrWrongTokenType is returned when an access token is presented where
	// a refresh token is required, or vice versa.
	ErrWrongTokenType = errors.New("jwt: wrong token type")
)

// Config defines a public type used by bankguard APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	// PrivateKey is the HS256 secret or the Ed25519 private key.
	PrivateKey []byte
	// PublicKey is the Ed25519 public key; unused for HS256.
	PublicKey []byte
	Issuer    string
	Leeway    time.Duration
}

// Claims is the wire claim set: subject, role snapshot, MFA flag, and the
// registered claims with ID as the revocable jti.
type Claims struct {
	Roles       []string  `json:"roles"`
	MFAVerified bool      `json:"mfa_verified"`
	TokenType   TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager mints and parses tokens with fixed TTLs resolved once at
// construction; per-call recomputation of expiry windows is deliberately
// not supported.
type Manager struct {
	config Config
}

// NewManager validates cfg and constructs an immutable Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("jwt: refresh TTL shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("jwt: hs256 requires a key of at least 32 bytes")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("jwt: invalid ed25519 private key")
		}
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("jwt: invalid ed25519 public key")
		}
	default:
		return nil, errors.New("jwt: unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL returns the configured access-token lifetime. Fixed for the
// Manager's lifetime; callers report it as expires_in.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// Mint issues a token of the given type for subject with the current role
// snapshot and a freshly generated jti.
func (m *Manager) Mint(tokenType TokenType, subject string, roles []string, mfaVerified bool, now time.Time) (string, error) {
	ttl := m.config.AccessTTL
	if tokenType == TypeRefresh {
		ttl = m.config.RefreshTTL
	}

	claims := Claims{
		Roles:       append([]string(nil), roles...),
		MFAVerified: mfaVerified,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(m.signingMethod(), claims)
	return token.SignedString(m.signKey())
}

// Parse verifies signature and expiry and returns the claim set. Expiry maps
// to ErrTokenExpired; every other failure maps to ErrTokenInvalid.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signingMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.signingMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey(), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseTyped is Parse plus a token-type check.
func (m *Manager) ParseTyped(tokenStr string, want TokenType) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (m *Manager) signingMethod() jwt.SigningMethod {
	if m.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (m *Manager) signKey() interface{} {
	if m.config.SigningMethod == MethodEd25519 {
		return ed25519.PrivateKey(m.config.PrivateKey)
	}
	return m.config.PrivateKey
}

func (m *Manager) verifyKey() interface{} {
	if m.config.SigningMethod == MethodEd25519 {
		return ed25519.PublicKey(m.config.PublicKey)
	}
	return m.config.PrivateKey
}

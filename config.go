package bankguard

import (
	"errors"
	"time"

	"github.com/darvenko/bankguard/encryption"
	"github.com/darvenko/bankguard/password"
)

// Config defines a public type used by bankguard APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	JWT        JWTConfig
	Encryption encryption.Config
	TOTP       TOTPConfig
	Password   password.Config
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by bankguard APIs.
//
// JWTConfig instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type JWTConfig struct {
	// AccessTTL is the fixed access-token lifetime. It is resolved once at
	// Build and reported to callers as expires_in.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// SigningMethod is "hs256" (default) or "ed25519".
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig defines a public type used by bankguard APIs.
//
// TOTPConfig instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type TOTPConfig struct {
	Issuer string
	Digits int
	// Period is the time step in seconds.
	Period int
	// Skew is the number of adjacent time steps accepted on either side of
	// the current one, covering small clock drift between client and server.
	Skew int
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig defines a public type used by bankguard APIs.
//
// RateLimitConfig instances are intended to be configured during
// initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by bankguard APIs.
//
// MetricsConfig instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: 15m/7d token TTLs, the
// standard authenticator TOTP profile, and production argon2id parameters.
// Key material is deployment-specific and always left empty.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "bankguard",
		},
		TOTP: TOTPConfig{
			Issuer: "bankguard",
			Digits: 6,
			Period: 30,
			Skew:   1,
		},
		Password: password.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Enabled:          false,
			MaxLoginAttempts: 5,
			LoginCooldown:    5 * time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func validateConfig(cfg Config) error {
	if cfg.TOTP.Digits < 6 || cfg.TOTP.Digits > 8 {
		return errors.New("totp digits must be between 6 and 8")
	}
	if cfg.TOTP.Period < 15 || cfg.TOTP.Period > 120 {
		return errors.New("totp period must be between 15 and 120 seconds")
	}
	if cfg.TOTP.Skew < 0 || cfg.TOTP.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2 steps")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("rate limit requires a positive attempt budget")
		}
		if cfg.RateLimit.LoginCooldown <= 0 {
			return errors.New("rate limit requires a positive cooldown")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	out.Encryption.SymmetricKey = append([]byte(nil), cfg.Encryption.SymmetricKey...)
	out.Encryption.PrivateKeyPEM = append([]byte(nil), cfg.Encryption.PrivateKeyPEM...)
	out.Encryption.PublicKeyPEM = append([]byte(nil), cfg.Encryption.PublicKeyPEM...)
	out.Encryption.SigningKey = append([]byte(nil), cfg.Encryption.SigningKey...)
	return out
}

package bankguard

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darvenko/bankguard/encryption"
	"github.com/darvenko/bankguard/internal/rate"
	"github.com/darvenko/bankguard/jwt"
	"github.com/darvenko/bankguard/ledger"
	"github.com/darvenko/bankguard/password"
	"github.com/darvenko/bankguard/rbac"
	"github.com/darvenko/bankguard/revocation"
)

const revocationKeyPrefix = "bg:rvk:"

// Builder defines a public type used by bankguard APIs.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	ledgerStore  ledger.Store
	auditSink    ledger.Sink
	userProvider UserProvider
	permissions  *rbac.Engine
	revocations  revocation.Set

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when
// the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// A Redis client enables the shared revocation set and login throttling;
// without one the engine falls back to in-process equivalents.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithLedgerStore describes the withledgerstore operation and its observable
// behavior.
//
// WithLedgerStore does not mutate shared global state and can be used
// concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLedgerStore(store ledger.Store) *Builder {
	b.ledgerStore = store
	return b
}

// WithAuditSink describes the withauditsink operation and its observable
// behavior.
//
// WithAuditSink does not mutate shared global state and can be used
// concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink ledger.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithUserProvider describes the withuserprovider operation and its
// observable behavior.
//
// WithUserProvider does not mutate shared global state and can be used
// concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithPermissionEngine supplies a pre-populated role hierarchy. When omitted
// the engine starts with an empty hierarchy administered at runtime through
// [Engine.Permissions].
func (b *Builder) WithPermissionEngine(pe *rbac.Engine) *Builder {
	b.permissions = pe
	return b
}

// WithRevocationSet overrides the revocation backend selected by default
// (Redis-backed when a client is present, in-process otherwise).
func (b *Builder) WithRevocationSet(set revocation.Set) *Builder {
	b.revocations = set
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its
// observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used
// concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or
// security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("login rate limiting requires redis client")
	}

	// -------- ENCRYPTION --------
	crypto, err := encryption.New(cfg.Encryption)
	if err != nil {
		return nil, err
	}

	// -------- AUDIT LEDGER --------
	store := b.ledgerStore
	if store == nil {
		store = ledger.NewMemoryStore()
	}

	var ledgerOpts []ledger.Option
	if b.auditSink != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithSink(b.auditSink))
	}

	led, err := ledger.New(store, crypto, ledgerOpts...)
	if err != nil {
		return nil, err
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    append([]byte(nil), cfg.JWT.PrivateKey...),
		PublicKey:     append([]byte(nil), cfg.JWT.PublicKey...),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	ph, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	// -------- PERMISSIONS --------
	permissions := b.permissions
	if permissions == nil {
		permissions = rbac.NewEngine()
	}

	// -------- REVOCATION --------
	revocations := b.revocations
	if revocations == nil {
		if b.redis != nil {
			revocations = revocation.NewRedisSet(b.redis, revocationKeyPrefix)
		} else {
			revocations = revocation.NewMemorySet()
		}
	}

	engine := &Engine{
		config:      cfg,
		users:       b.userProvider,
		crypto:      crypto,
		ledger:      led,
		permissions: permissions,
		tokens:      jm,
		passwords:   ph,
		totp:        newTOTPManager(cfg.TOTP),
		revocations: revocations,
		metrics:     NewMetrics(cfg.Metrics),
		now:         time.Now,
	}

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			LoginCooldown:    cfg.RateLimit.LoginCooldown,
		})
	}

	b.built = true

	return engine, nil
}

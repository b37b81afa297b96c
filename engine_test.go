package bankguard

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/darvenko/bankguard/encryption"
	"github.com/darvenko/bankguard/ledger"
	"github.com/darvenko/bankguard/password"
)

type memUsers struct {
	mu      sync.Mutex
	byName  map[string]PrincipalRecord
	byID    map[string]PrincipalRecord
	retired map[string]bool
}

func newMemUsers() *memUsers {
	return &memUsers{
		byName:  make(map[string]PrincipalRecord),
		byID:    make(map[string]PrincipalRecord),
		retired: make(map[string]bool),
	}
}

func (m *memUsers) add(rec PrincipalRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byName[rec.Username] = rec
	m.byID[rec.ID] = rec
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (PrincipalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byName[username]
	if !ok {
		return PrincipalRecord{}, ErrPrincipalNotFound
	}
	return rec, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (PrincipalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return PrincipalRecord{}, ErrPrincipalNotFound
	}
	return rec, nil
}

func (m *memUsers) Retire(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	rec.Status = PrincipalRetired
	rec.Roles = nil
	rec.PasswordHash = "!retired!"
	m.byID[id] = rec
	m.byName[rec.Username] = rec
	m.retired[id] = true
	return nil
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Encryption = encryption.Config{
		SymmetricKey: bytes.Repeat([]byte{0x4b}, 32),
		SigningKey:   bytes.Repeat([]byte{0x5c}, 32),
	}
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	// Minimum hashing parameters keep the suite fast.
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return cfg
}

func testHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(testConfig().Password)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func hashPassword(t *testing.T, plaintext string) string {
	t.Helper()
	encoded, err := testHasher(t).Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	return encoded
}

func newTestEngine(t *testing.T, users UserProvider, mutate func(*Builder)) *Engine {
	t.Helper()

	b := New().WithConfig(testConfig()).WithUserProvider(users)
	if mutate != nil {
		mutate(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

func entriesByAction(t *testing.T, e *Engine, action string) []ledger.Entry {
	t.Helper()
	res, err := e.Ledger().Search(context.Background(), ledger.Query{Action: action}, false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	return res.Entries
}

func TestAuthenticateSuccess(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
		Roles:        []string{"teller"},
	})
	e := newTestEngine(t, users, nil)

	res, err := e.Authenticate(context.Background(), "alice", "s3cret", "")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if res.MFARequired {
		t.Fatal("MFA demanded for a principal without MFA")
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("token pair not issued")
	}
	if res.Tokens.ExpiresIn != testConfig().JWT.AccessTTL {
		t.Fatalf("ExpiresIn = %v, want %v", res.Tokens.ExpiresIn, testConfig().JWT.AccessTTL)
	}

	info, err := e.VerifyToken(context.Background(), res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if info.PrincipalID != "u-1" || len(info.Roles) != 1 || info.Roles[0] != "teller" {
		t.Fatalf("unexpected token info: %+v", info)
	}
	if info.MFAVerified {
		t.Fatal("MFAVerified set without an MFA challenge")
	}

	if got := entriesByAction(t, e, auditLoginSuccess); len(got) != 1 {
		t.Fatalf("login_success entries = %d, want 1", len(got))
	}
	if e.Metrics().Value(MetricLoginSuccess) != 1 {
		t.Fatal("login success counter not incremented")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
	})
	e := newTestEngine(t, users, nil)

	_, err := e.Authenticate(context.Background(), "alice", "wrong", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}

	entries := entriesByAction(t, e, auditLoginFailed)
	if len(entries) != 1 {
		t.Fatalf("login_failed entries = %d, want 1", len(entries))
	}
	if entries[0].PrincipalID != "" {
		t.Fatalf("failure entry names a principal: %q", entries[0].PrincipalID)
	}
	if entries[0].Resource != "user:alice" {
		t.Fatalf("failure entry resource = %q", entries[0].Resource)
	}
}

func TestAuthenticateUnknownUserSameFailurePath(t *testing.T) {
	e := newTestEngine(t, newMemUsers(), nil)

	_, err := e.Authenticate(context.Background(), "ghost", "whatever", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if got := entriesByAction(t, e, auditLoginFailed); len(got) != 1 {
		t.Fatalf("login_failed entries = %d, want 1", len(got))
	}
}

func TestAuthenticateRetiredPrincipal(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
		Status:       PrincipalRetired,
	})
	e := newTestEngine(t, users, nil)

	_, err := e.Authenticate(context.Background(), "alice", "s3cret", "")
	if !errors.Is(err, ErrPrincipalRetired) {
		t.Fatalf("got %v, want ErrPrincipalRetired", err)
	}
}

func TestAuthenticateMFAGate(t *testing.T) {
	secret := bytes.Repeat([]byte{0xa7}, 20)
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
		Roles:        []string{"teller"},
		MFAEnabled:   true,
		MFASecret:    secret,
	})
	e := newTestEngine(t, users, nil)

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	// Valid password, no OTP: challenge, no tokens.
	res, err := e.Authenticate(context.Background(), "alice", "s3cret", "")
	if !errors.Is(err, ErrMFARequired) {
		t.Fatalf("got %v, want ErrMFARequired", err)
	}
	if !res.MFARequired {
		t.Fatal("MFARequired not set")
	}
	if res.Tokens.AccessToken != "" {
		t.Fatal("tokens issued before MFA")
	}
	if got := entriesByAction(t, e, auditMFARequired); len(got) != 1 {
		t.Fatalf("mfa_required entries = %d, want 1", len(got))
	}

	// Wrong OTP.
	if _, err := e.Authenticate(context.Background(), "alice", "s3cret", "000000"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("got %v, want ErrOTPInvalid", err)
	}
	if got := entriesByAction(t, e, auditMFAFailed); len(got) != 1 {
		t.Fatalf("mfa_failed entries = %d, want 1", len(got))
	}

	// Code from the previous step is inside the ±1 skew window.
	counter := fixed.Unix() / 30
	code := hotpCode(secret, counter-1, 6)
	res, err = e.Authenticate(context.Background(), "alice", "s3cret", code)
	if err != nil {
		t.Fatalf("Authenticate with valid OTP failed: %v", err)
	}
	if res.Tokens.AccessToken == "" {
		t.Fatal("tokens not issued after MFA")
	}

	info, err := e.VerifyToken(context.Background(), res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if !info.MFAVerified {
		t.Fatal("MFAVerified not carried in claims")
	}

	// Two steps outside the window must be rejected.
	stale := hotpCode(secret, counter-2, 6)
	if _, err := e.Authenticate(context.Background(), "alice", "s3cret", stale); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("stale code: got %v, want ErrOTPInvalid", err)
	}
}

func TestAuthenticateRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
	})

	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxLoginAttempts = 3
	cfg.RateLimit.LoginCooldown = time.Minute

	b := New().WithConfig(cfg).WithUserProvider(users).WithRedis(client)
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := e.Authenticate(ctx, "alice", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCredentials", i, err)
		}
	}

	if _, err := e.Authenticate(ctx, "alice", "s3cret", ""); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("got %v, want ErrLoginRateLimited", err)
	}
	if got := entriesByAction(t, e, auditLoginThrottled); len(got) != 1 {
		t.Fatalf("login_throttled entries = %d, want 1", len(got))
	}

	// Cooldown expiry restores the budget.
	mr.FastForward(2 * time.Minute)
	res, err := e.Authenticate(ctx, "alice", "s3cret", "")
	if err != nil {
		t.Fatalf("Authenticate after cooldown failed: %v", err)
	}
	if res.Tokens.AccessToken == "" {
		t.Fatal("tokens not issued after cooldown")
	}
}

func TestAuthenticateFailsWhenLedgerDown(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
	})
	e := newTestEngine(t, users, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The memory store refuses appends on a dead context; the attempt must
	// fail outright rather than complete unaudited.
	if _, err := e.Authenticate(ctx, "alice", "s3cret", ""); !errors.Is(err, ErrAuditUnavailable) {
		t.Fatalf("got %v, want ErrAuditUnavailable", err)
	}
}

func TestRetirePrincipal(t *testing.T) {
	users := newMemUsers()
	users.add(PrincipalRecord{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: hashPassword(t, "s3cret"),
		Roles:        []string{"teller"},
	})
	e := newTestEngine(t, users, nil)

	if err := e.RetirePrincipal(context.Background(), "admin-1", "u-1"); err != nil {
		t.Fatalf("RetirePrincipal failed: %v", err)
	}

	if _, err := e.Authenticate(context.Background(), "alice", "s3cret", ""); err == nil {
		t.Fatal("retired principal authenticated")
	}

	entries := entriesByAction(t, e, auditPrincipalRetired)
	if len(entries) != 1 || entries[0].PrincipalID != "admin-1" {
		t.Fatalf("unexpected retirement audit: %+v", entries)
	}
}

func TestGenerateMFASecret(t *testing.T) {
	e := newTestEngine(t, newMemUsers(), nil)

	raw, uri, err := e.GenerateMFASecret("alice")
	if err != nil {
		t.Fatalf("GenerateMFASecret failed: %v", err)
	}
	if len(raw) != totpSecretBytes {
		t.Fatalf("secret length = %d, want %d", len(raw), totpSecretBytes)
	}
	if uri == "" || uri[:15] != "otpauth://totp/" {
		t.Fatalf("unexpected provisioning URI: %q", uri)
	}
}

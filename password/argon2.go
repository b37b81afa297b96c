package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// ErrMalformedHash is returned when a stored credential hash does not parse
// as an argon2id PHC string. A retired principal's invalidated credential
// surfaces through this error and can never verify.
var ErrMalformedHash = errors.New("password: malformed credential hash")

// Config defines a public type used by bankguard APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	Memory      uint32 // in KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the baseline argon2id parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher derives and verifies argon2id credential hashes.
//
// Hasher instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and constructs an immutable Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Memory < 8*1024 {
		return nil, errors.New("password: memory below 8 MiB")
	}
	if cfg.Time < 1 || cfg.Parallelism < 1 {
		return nil, errors.New("password: time and parallelism must be positive")
	}
	if cfg.SaltLength < 16 || cfg.KeyLength < 16 {
		return nil, errors.New("password: salt and key must be at least 16 bytes")
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a PHC-encoded argon2id hash from password with a fresh salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password: empty password")
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the stored PHC hash. The derived
// keys are compared in constant time.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	memory, time, parallelism, salt, stored, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		parallelism,
		uint32(len(stored)),
	)
	return subtle.ConstantTimeCompare(computed, stored) == 1, nil
}

func parsePHC(encodedHash string) (memory, time uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	var p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &p); err != nil || p == 0 || p > 255 {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	parallelism = uint8(p)

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < 16 {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	return memory, time, parallelism, salt, key, nil
}

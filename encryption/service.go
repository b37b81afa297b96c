package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	symmetricKeySize = 32
	ivSize           = 12
	tagSize          = 16
	derivedKeySize   = 32
	pbkdf2Iterations = 100_000
)

// Config carries the key material for a [Service]. Keys are loaded once at
// startup by the caller; the service never reads files or the environment.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	// SymmetricKey is the 32-byte AES-256-GCM key. Optional; symmetric
	// operations fail with ErrNotConfigured when absent.
	SymmetricKey []byte
	// PrivateKeyPEM and PublicKeyPEM hold the RSA keypair. Either side may
	// be absent; the matching operations then fail with ErrNotConfigured.
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte
	// SigningKey is the HMAC-SHA256 key. It must differ from SymmetricKey.
	SigningKey []byte
}

// Box is the result of symmetric authenticated encryption: ciphertext plus
// the per-call IV and the GCM authentication tag.
type Box struct {
	Ciphertext []byte
	IV         []byte
	Tag        []byte
}

// Service performs all cryptographic operations for the security core.
//
// Service instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Service struct {
	symmetricKey []byte
	privateKey   *rsa.PrivateKey
	publicKey    *rsa.PublicKey
	signingKey   []byte
}

// New validates cfg and constructs an immutable Service. Partial key material
// is allowed; each operation checks for the keys it needs and fails closed.
func New(cfg Config) (*Service, error) {
	s := &Service{}

	if len(cfg.SymmetricKey) > 0 {
		if len(cfg.SymmetricKey) != symmetricKeySize {
			return nil, ErrNotConfigured
		}
		s.symmetricKey = append([]byte(nil), cfg.SymmetricKey...)
	}

	if len(cfg.PrivateKeyPEM) > 0 {
		key, err := parseRSAPrivateKey(cfg.PrivateKeyPEM)
		if err != nil {
			return nil, err
		}
		s.privateKey = key
		s.publicKey = &key.PublicKey
	}
	if len(cfg.PublicKeyPEM) > 0 {
		key, err := parseRSAPublicKey(cfg.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		s.publicKey = key
	}

	if len(cfg.SigningKey) > 0 {
		if s.symmetricKey != nil && subtle.ConstantTimeCompare(cfg.SigningKey, s.symmetricKey) == 1 {
			return nil, ErrKeyOverlap
		}
		s.signingKey = append([]byte(nil), cfg.SigningKey...)
	}

	return s, nil
}

// EncryptSymmetric encrypts plaintext with AES-256-GCM under a fresh random
// 96-bit IV. The IV is never reused for the same key; it is drawn from
// crypto/rand on every call.
func (s *Service) EncryptSymmetric(plaintext []byte) (Box, error) {
	gcm, err := s.gcm()
	if err != nil {
		return Box{}, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Box{}, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - tagSize

	return Box{
		Ciphertext: sealed[:split],
		IV:         iv,
		Tag:        sealed[split:],
	}, nil
}

// DecryptSymmetric authenticates and decrypts a Box. On any tag mismatch it
// returns ErrIntegrity and no plaintext.
func (s *Service) DecryptSymmetric(box Box) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	if len(box.IV) != ivSize || len(box.Tag) != tagSize {
		return nil, ErrIntegrity
	}

	sealed := make([]byte, 0, len(box.Ciphertext)+tagSize)
	sealed = append(sealed, box.Ciphertext...)
	sealed = append(sealed, box.Tag...)

	plaintext, err := gcm.Open(nil, box.IV, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// EncryptAsymmetric encrypts plaintext with RSA-OAEP (SHA-256 MGF). The
// plaintext must fit within the key modulus minus padding overhead.
func (s *Service) EncryptAsymmetric(plaintext []byte) ([]byte, error) {
	if s == nil || s.publicKey == nil {
		return nil, ErrNotConfigured
	}

	limit := s.publicKey.Size() - 2*sha256.Size - 2
	if len(plaintext) > limit {
		return nil, ErrOversized
	}

	return rsa.EncryptOAEP(sha256.New(), rand.Reader, s.publicKey, plaintext, nil)
}

// DecryptAsymmetric decrypts an RSA-OAEP ciphertext.
func (s *Service) DecryptAsymmetric(ciphertext []byte) ([]byte, error) {
	if s == nil || s.privateKey == nil {
		return nil, ErrNotConfigured
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, s.privateKey, ciphertext, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// GenerateHMAC computes an HMAC-SHA256 signature over data using the signing
// key. The signing key is kept distinct from the encryption key.
func (s *Service) GenerateHMAC(data []byte) ([]byte, error) {
	if s == nil || len(s.signingKey) == 0 {
		return nil, ErrNotConfigured
	}

	mac := hmac.New(sha256.New, s.signingKey)
	_, _ = mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyHMAC reports whether signature matches data. Comparison is
// constant-time.
func (s *Service) VerifyHMAC(data, signature []byte) (bool, error) {
	expected, err := s.GenerateHMAC(data)
	if err != nil {
		return false, err
	}
	return hmac.Equal(signature, expected), nil
}

// DeriveKey derives a 32-byte key from password and salt using
// PBKDF2-HMAC-SHA256 with 100000 iterations. The password is used as raw
// bytes and is never retained.
func (s *Service) DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, pbkdf2Iterations, derivedKeySize, sha256.New)
}

func (s *Service) gcm() (cipher.AEAD, error) {
	if s == nil || len(s.symmetricKey) == 0 {
		return nil, ErrNotConfigured
	}

	block, err := aes.NewCipher(s.symmetricKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

package encryption

import "errors"

var (
	// ErrNotConfigured is returned when an operation needs key material that
	// was not supplied at construction time. The service fails closed.
	ErrNotConfigured = errors.New("encryption: key material not configured")
	// ErrIntegrity is returned on any authentication tag or signature
	// mismatch. It is always a security incident, never a soft failure.
	ErrIntegrity = errors.New("encryption: integrity check failed")
	// ErrOversized is returned when an RSA-OAEP plaintext exceeds the
	// capacity of the configured key.
	ErrOversized = errors.New("encryption: plaintext exceeds key capacity")
	// ErrFormat is returned when a persisted envelope does not decode into
	// exactly iv, tag, and ciphertext.
	ErrFormat = errors.New("encryption: malformed encrypted payload")
	// ErrKeyOverlap is returned when the signing key equals the symmetric
	// key; key separation is a construction-time invariant.
	ErrKeyOverlap = errors.New("encryption: signing key must differ from symmetric key")
)

// Package encryption provides the cryptographic primitives shared by the
// bankguard core: AES-256-GCM authenticated encryption, RSA-OAEP asymmetric
// encryption, HMAC-SHA256 message authentication, PBKDF2 key derivation, and
// an envelope codec for encrypted files.
//
// A [Service] is constructed once with its full key material and is immutable
// afterwards; all methods are safe for concurrent use. The symmetric key and
// the HMAC signing key are required to be distinct.
//
// # What this package must NOT do
//
//   - Fall back to a plaintext or unauthenticated path on any failure.
//   - Return partial plaintext when a GCM tag or envelope check fails.
//   - Log, store, or echo passwords passed to [Service.DeriveKey].
package encryption

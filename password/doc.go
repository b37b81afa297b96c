// Package password hashes and verifies principal credentials with argon2id
// in PHC string format. Verification is constant-time over the derived keys;
// the cleartext password is never stored or logged.
package password

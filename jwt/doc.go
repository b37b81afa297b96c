// Package jwt mints and verifies the signed, self-contained tokens issued by
// the session manager. Claims carry the principal id, the role-name snapshot
// taken at issuance, the MFA-verified flag, and a unique jti targeted by the
// revocation set.
//
// The [Manager] is configured once and is safe for concurrent use. It never
// consults external state: revocation checks and role re-resolution are the
// engine's responsibility.
package jwt

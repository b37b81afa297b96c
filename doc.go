// Package bankguard is the security-services core of a financial backend:
// authenticated encryption, a signed append-only audit ledger, hierarchical
// role-based permissions, and token issuance with MFA and revocation.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Key material is loaded once at build time and treated as
// immutable thereafter.
//
// # Architecture boundaries
//
// bankguard is the public surface. HTTP routing, persistence schemas,
// backup orchestration, and process bootstrapping are external
// collaborators: routing consumes the [rbac.GuardFunc] contract, the backup
// pipeline consumes file encryption and audit logging as black-box calls,
// and the ledger's durable store plugs in behind [ledger.Store].
//
// # What this package must NOT do
//
//   - Complete a privileged operation unaudited: if the ledger append
//     fails, the operation fails.
//   - Degrade a cryptographic failure to a plaintext or unauthenticated
//     path, or a permission-resolution anomaly to allow.
//   - Include a submitted secret in any audit entry or error.
package bankguard

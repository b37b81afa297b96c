// Package rate provides internal primitives used to build Redis-backed rate
// limit keys, errors, and limiter behavior for login throttling.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - bg:rl:u: — login per-principal
//   - bg:rl:i: — login per-IP
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in the engine).
//   - Be imported outside the bankguard module.
package rate

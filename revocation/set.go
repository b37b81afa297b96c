// Package revocation provides the shared revocation set consulted on every
// token verification. A jti added to the set stays revoked for that token's
// remaining lifetime; there is no removal API.
//
// The [Set] interface lets a single-instance deployment use [MemorySet]
// while a clustered deployment substitutes [RedisSet] (or any store with
// read-your-writes consistency) without touching session-manager logic.
package revocation

import (
	"context"
	"time"
)

// Set is a thread-safe revocation set with expected O(1) membership and
// insert. ttl bounds how long membership must be retained: once the token
// itself has expired, the entry may be dropped.
type Set interface {
	// Add marks jti revoked for at least ttl.
	Add(ctx context.Context, jti string, ttl time.Duration) error
	// Contains reports whether jti has been revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}

// Package ledger implements the append-only, HMAC-signed audit trail.
//
// Every entry is signed over a canonical key-sorted serialization of its
// fields; verification recomputes that signature against the stored record,
// so any post-insert mutation of a field is detectable. Entries are immutable
// once persisted: amendments are new entries, and no API rewrites a stored
// signature.
//
// Persistence is a collaborator behind the [Store] interface (atomic
// insert-one plus timestamp-indexed search). [MemoryStore] serves a single
// process and tests; [SQLiteStore] is the embedded durable option.
//
// # What this package must NOT do
//
//   - Filter out entries that fail verification during search; failures are
//     surfaced to the caller as incidents.
//   - Write plaintext sensitive payloads; they pass through the encryption
//     service before insert.
package ledger

package ledger

import (
	"encoding/json"
	"time"
)

// Entry is one immutable audit record. PrincipalID is empty for anonymous or
// failed attempts. EncryptedData, when present, holds the envelope-encoded
// ciphertext of the sensitive payload. Signature covers every other field.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	PrincipalID   string    `json:"principal_id,omitempty"`
	Action        string    `json:"action"`
	Resource      string    `json:"resource"`
	EncryptedData string    `json:"encrypted_data,omitempty"`
	Signature     string    `json:"signature,omitempty"`
}

// canonicalBytes returns the deterministic serialization signed for an entry:
// key-sorted JSON of all fields except Signature, with the timestamp pinned
// to UTC RFC 3339 nanoseconds so the same logical entry always signs
// identically.
func canonicalBytes(e Entry) ([]byte, error) {
	// encoding/json sorts map keys, which gives the key-sorted property
	// without a custom encoder.
	fields := map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
		"action":    e.Action,
		"resource":  e.Resource,
	}
	if e.PrincipalID != "" {
		fields["principal_id"] = e.PrincipalID
	}
	if e.EncryptedData != "" {
		fields["encrypted_data"] = e.EncryptedData
	}
	return json.Marshal(fields)
}

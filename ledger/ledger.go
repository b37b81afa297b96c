package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darvenko/bankguard/encryption"
)

// Ledger signs, persists, and verifies audit entries. It is safe for
// concurrent use: the store provides atomic inserts and the encryption
// service is immutable.
type Ledger struct {
	store  Store
	crypto *encryption.Service
	sink   Sink
	now    func() time.Time
}

// Option configures optional Ledger collaborators.
type Option func(*Ledger)

// WithSink mirrors every persisted entry to sink after the authoritative
// store insert succeeds. The sink is an observer only; its failures do not
// fail the append.
func WithSink(sink Sink) Option {
	return func(l *Ledger) {
		l.sink = sink
	}
}

// withClock overrides the timestamp source. Test hook only.
func withClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New constructs a Ledger over the given store and encryption service. The
// encryption service must carry a signing key; the ledger refuses to operate
// unsigned.
func New(store Store, crypto *encryption.Service, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger: store is required")
	}
	if crypto == nil {
		return nil, encryption.ErrNotConfigured
	}
	// Probe once so a missing signing key surfaces at startup, not on the
	// first privileged operation.
	if _, err := crypto.GenerateHMAC([]byte("probe")); err != nil {
		return nil, err
	}

	l := &Ledger{
		store:  store,
		crypto: crypto,
		sink:   NoOpSink{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LogActivity builds, signs, and persists one audit entry, returning its id.
// principalID is empty for anonymous or failed attempts. sensitive, when
// non-nil, is serialized and encrypted through the encryption service before
// it touches the store. If the insert fails the caller's operation must not
// proceed as audited.
func (l *Ledger) LogActivity(ctx context.Context, principalID, action, resource string, sensitive map[string]any) (string, error) {
	entry := Entry{
		ID:          uuid.NewString(),
		Timestamp:   l.now().UTC(),
		PrincipalID: principalID,
		Action:      action,
		Resource:    resource,
	}

	if len(sensitive) > 0 {
		payload, err := json.Marshal(sensitive)
		if err != nil {
			return "", fmt.Errorf("ledger: encode sensitive payload: %w", err)
		}
		box, err := l.crypto.EncryptSymmetric(payload)
		if err != nil {
			return "", err
		}
		entry.EncryptedData = string(encryption.EncodeEnvelope(box))
	}

	signature, err := l.sign(entry)
	if err != nil {
		return "", err
	}
	entry.Signature = signature

	if err := l.store.Insert(ctx, entry); err != nil {
		return "", fmt.Errorf("ledger: append failed: %w", err)
	}

	l.sink.Emit(ctx, entry)
	return entry.ID, nil
}

// VerifyIntegrity recomputes the signature of a stored entry and compares it
// with the persisted one. false means tampering or storage corruption.
func (l *Ledger) VerifyIntegrity(ctx context.Context, entryID string) (bool, error) {
	entry, err := l.store.Get(ctx, entryID)
	if err != nil {
		return false, err
	}
	return l.verify(entry)
}

// SearchResult carries the matches of a search plus the ids of entries whose
// signature failed verification. Failing entries stay in Entries; hiding a
// tampered record would hide the incident.
type SearchResult struct {
	Entries  []Entry
	Tampered []string
}

// Search returns entries matching q. When verify is true every returned
// entry is re-verified and failures are reported in Tampered.
func (l *Ledger) Search(ctx context.Context, q Query, verify bool) (SearchResult, error) {
	entries, err := l.store.Search(ctx, q)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Entries: entries}
	if !verify {
		return result, nil
	}

	for _, entry := range entries {
		ok, err := l.verify(entry)
		if err != nil {
			return SearchResult{}, err
		}
		if !ok {
			result.Tampered = append(result.Tampered, entry.ID)
		}
	}
	return result, nil
}

// DecryptPayload recovers the sensitive payload of an entry logged with
// sensitive data.
func (l *Ledger) DecryptPayload(entry Entry) (map[string]any, error) {
	if entry.EncryptedData == "" {
		return nil, nil
	}
	box, err := encryption.DecodeEnvelope([]byte(entry.EncryptedData))
	if err != nil {
		return nil, err
	}
	payload, err := l.crypto.DecryptSymmetric(box)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, ErrCorruptEntry
	}
	return out, nil
}

func (l *Ledger) sign(entry Entry) (string, error) {
	canonical, err := canonicalBytes(entry)
	if err != nil {
		return "", err
	}
	mac, err := l.crypto.GenerateHMAC(canonical)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(mac), nil
}

func (l *Ledger) verify(entry Entry) (bool, error) {
	stored, err := hex.DecodeString(entry.Signature)
	if err != nil {
		return false, nil
	}
	canonical, err := canonicalBytes(entry)
	if err != nil {
		return false, err
	}
	return l.crypto.VerifyHMAC(canonical, stored)
}

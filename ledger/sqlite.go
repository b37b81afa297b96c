package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id             TEXT PRIMARY KEY,
	timestamp_ns   INTEGER NOT NULL,
	principal_id   TEXT NOT NULL DEFAULT '',
	action         TEXT NOT NULL,
	resource       TEXT NOT NULL,
	encrypted_data TEXT NOT NULL DEFAULT '',
	signature      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_timestamp ON audit_entries (timestamp_ns);
`

// SQLiteStore is a durable [Store] backed by an embedded SQLite database
// (modernc.org/sqlite, no cgo). Inserts are single-statement and therefore
// atomic; the timestamp column is indexed for range scans.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the audit
// schema exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc's driver serializes writes per connection; one connection
	// keeps insert ordering stable without SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert appends one entry. The primary key rejects id collisions, so a
// persisted record can never be overwritten through this path.
func (s *SQLiteStore) Insert(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, timestamp_ns, principal_id, action, resource, encrypted_data, signature)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().UnixNano(),
		entry.PrincipalID,
		entry.Action,
		entry.Resource,
		entry.EncryptedData,
		entry.Signature,
	)
	return err
}

// Get returns the entry with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp_ns, principal_id, action, resource, encrypted_data, signature
		 FROM audit_entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

// Search returns entries matching q ordered by timestamp. The caller's ctx
// bounds long range scans; the table is never written during search.
func (s *SQLiteStore) Search(ctx context.Context, q Query) ([]Entry, error) {
	query := `SELECT id, timestamp_ns, principal_id, action, resource, encrypted_data, signature
		 FROM audit_entries WHERE 1=1`
	var args []any

	if q.PrincipalID != "" {
		query += " AND principal_id = ?"
		args = append(args, q.PrincipalID)
	}
	if q.Action != "" {
		query += " AND action = ?"
		args = append(args, q.Action)
	}
	if q.Resource != "" {
		query += " AND resource = ?"
		args = append(args, q.Resource)
	}
	if !q.From.IsZero() {
		query += " AND timestamp_ns >= ?"
		args = append(args, q.From.UTC().UnixNano())
	}
	if !q.To.IsZero() {
		query += " AND timestamp_ns <= ?"
		args = append(args, q.To.UTC().UnixNano())
	}
	query += " ORDER BY timestamp_ns ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry Entry
		ns    int64
	)
	err := row.Scan(&entry.ID, &ns, &entry.PrincipalID, &entry.Action, &entry.Resource, &entry.EncryptedData, &entry.Signature)
	if err != nil {
		return Entry{}, err
	}
	entry.Timestamp = time.Unix(0, ns).UTC()
	return entry, nil
}

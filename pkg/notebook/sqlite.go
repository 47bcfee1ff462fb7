package notebook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const signatureSchemaSQL = `
CREATE TABLE IF NOT EXISTS nbsignatures (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	algorithm TEXT NOT NULL,
	signature TEXT NOT NULL,
	path      TEXT NOT NULL DEFAULT '',
	last_seen TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS algosig ON nbsignatures(algorithm, signature);
`

// SQLiteStore is a SignatureStore persisted in a SQLite database, so trust
// survives restarts. The table keeps at most MaxEntries rows; the least
// recently seen signatures are culled first.
type SQLiteStore struct {
	conn       *sql.DB
	maxEntries int
	now        func() time.Time
}

// DefaultMaxEntries bounds the signature table.
const DefaultMaxEntries = 65535

// OpenSQLiteStore opens (or creates) the signature database at dsn. Use
// ":memory:" for a throwaway database.
func OpenSQLiteStore(dsn string, maxEntries int) (*SQLiteStore, error) {
	if dsn != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("notary: open %s: %w", dsn, err)
	}
	// A single connection keeps ":memory:" databases shared.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(signatureSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notary: apply schema: %w", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &SQLiteStore{conn: conn, maxEntries: maxEntries, now: time.Now}, nil
}

func (s *SQLiteStore) Store(ctx context.Context, signature, algorithm string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO nbsignatures (algorithm, signature, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(algorithm, signature) DO UPDATE SET last_seen = excluded.last_seen
	`, algorithm, signature, s.now().UTC())
	if err != nil {
		return fmt.Errorf("notary: store signature: %w", err)
	}
	return s.cull(ctx)
}

func (s *SQLiteStore) Check(ctx context.Context, signature, algorithm string) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE nbsignatures SET last_seen = ? WHERE algorithm = ? AND signature = ?`,
		s.now().UTC(), algorithm, signature)
	if err != nil {
		return false, fmt.Errorf("notary: check signature: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("notary: check signature: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Remove(ctx context.Context, signature, algorithm string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM nbsignatures WHERE algorithm = ? AND signature = ?`, algorithm, signature)
	if err != nil {
		return fmt.Errorf("notary: remove signature: %w", err)
	}
	return nil
}

// Count returns the number of stored signatures.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM nbsignatures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("notary: count signatures: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) cull(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
		DELETE FROM nbsignatures WHERE id IN (
			SELECT id FROM nbsignatures ORDER BY last_seen DESC, id DESC LIMIT -1 OFFSET ?
		)
	`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("notary: cull signatures: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_key      TEXT PRIMARY KEY,
	username         TEXT NOT NULL,
	uuid             TEXT NOT NULL,
	ip               TEXT NOT NULL,
	protocol_version INTEGER NOT NULL,
	authenticated_at INTEGER NOT NULL,
	expires_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at);
`

type SQLiteConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// SQLiteStore persists sessions in a local database file so the ledger
// survives restarts without running a separate service.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Path, err)
	}
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		ttl: cfg.TTL,
		now: time.Now,
	}, nil
}

func (s *SQLiteStore) PutSession(ctx context.Context, rec SessionRecord) error {
	now := s.now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).UnixNano()
	}

	if _, err := s.prune(ctx, now); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_key, username, uuid, ip, protocol_version, authenticated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_key) DO UPDATE SET
			username = excluded.username,
			uuid = excluded.uuid,
			ip = excluded.ip,
			protocol_version = excluded.protocol_version,
			authenticated_at = excluded.authenticated_at,
			expires_at = excluded.expires_at`,
		Key(rec.Username, net.ParseIP(rec.IP)),
		rec.Username,
		rec.UUID.String(),
		rec.IP,
		rec.ProtocolVersion,
		rec.AuthenticatedAt.UnixNano(),
		expiresAt,
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, username string, ip net.IP) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, uuid, ip, protocol_version, authenticated_at
		FROM sessions
		WHERE session_key = ? AND (expires_at = 0 OR expires_at > ?)`,
		Key(username, ip),
		s.now().UnixNano(),
	)

	var (
		rec             SessionRecord
		uuidStr         string
		authenticatedAt int64
	)
	if err := row.Scan(&rec.Username, &uuidStr, &rec.IP, &rec.ProtocolVersion, &authenticatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRecord{}, ErrNotFound
		}
		return SessionRecord{}, err
	}

	playerUUID, err := uuid.FromString(uuidStr)
	if err != nil {
		return SessionRecord{}, err
	}
	rec.UUID = playerUUID
	rec.AuthenticatedAt = time.Unix(0, authenticatedAt)
	return rec, nil
}

// Prune deletes every expired row and returns how many were deleted.
func (s *SQLiteStore) Prune(ctx context.Context) (int, error) {
	return s.prune(ctx, s.now())
}

func (s *SQLiteStore) prune(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at != 0 AND expires_at <= ?",
		now.UnixNano(),
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

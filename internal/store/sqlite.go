package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/me/trakt/pkg/trakt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps tokens for any number of profiles in one SQLite
// database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	onDisk := dbPath != ":memory:"
	if onDisk {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// One connection: a CLI has a single writer, and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if onDisk {
		if err := os.Chmod(dbPath, 0600); err != nil {
			db.Close()
			return nil, fmt.Errorf("restrict %s: %w", dbPath, err)
		}
	}

	return &SQLiteStore{
		db:     db,
		path:   dbPath,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Location returns the database path and profile.
func (s *SQLiteStore) Location(profile string) string {
	return s.path + " (profile " + profileName(profile) + ")"
}

// Load returns profile's token or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, profile string) (trakt.Token, error) {
	profile = profileName(profile)
	s.logger.Debug("sql", "op", "select", "table", "tokens", "profile", profile)

	var tok trakt.Token
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires FROM tokens WHERE profile = ?`, profile,
	).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return trakt.Token{}, ErrNotFound
	}
	if err != nil {
		return trakt.Token{}, fmt.Errorf("load token: %w", err)
	}
	return tok, nil
}

// Save inserts or replaces profile's token.
func (s *SQLiteStore) Save(ctx context.Context, profile string, tok trakt.Token) error {
	profile = profileName(profile)
	s.logger.Debug("sql", "op", "upsert", "table", "tokens", "profile", profile)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (profile, access_token, refresh_token, expires, updated_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(profile) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expires = excluded.expires,
		   updated_at = excluded.updated_at`,
		profile, tok.AccessToken, tok.RefreshToken, tok.Expires, now, now,
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Delete removes profile's token. A missing profile is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, profile string) error {
	profile = profileName(profile)
	s.logger.Debug("sql", "op", "delete", "table", "tokens", "profile", profile)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE profile = ?`, profile); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func profileName(p string) string {
	if p == "" {
		return DefaultProfile
	}
	return p
}

// Package store persists the trakt command's OAuth tokens, one per
// profile, in a JSON file or a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/trakt/pkg/trakt"
)

// DefaultProfile is the profile used when none is named.
const DefaultProfile = "default"

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// ErrNotFound is returned by Load when a profile has no token.
var ErrNotFound = errors.New("no stored token")

// Store persists exported tokens by profile name.
type Store interface {
	Load(ctx context.Context, profile string) (trakt.Token, error)
	Save(ctx context.Context, profile string, tok trakt.Token) error
	Delete(ctx context.Context, profile string) error

	// Location describes where a profile's token lives, for messages.
	Location(profile string) string

	Close() error
}

// Open returns the store of the given kind at path. An empty kind means
// KindFile. SQLite stores are migrated before they are returned.
func Open(ctx context.Context, kind, path string, logger *slog.Logger) (Store, error) {
	switch kind {
	case "", KindFile:
		return NewFileStore(path), nil
	case KindSQLite:
		st, err := NewSQLiteStore(path, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate %s: %w", path, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, KindFile, KindSQLite)
	}
}

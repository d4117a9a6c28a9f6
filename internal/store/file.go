package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/me/trakt/pkg/trakt"
)

// FileStore keeps each profile's token in its own JSON file. The default
// profile uses path itself; profile "work" uses credentials-work.json next
// to it.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) profilePath(profile string) string {
	if profile == "" || profile == DefaultProfile {
		return s.path
	}
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + "-" + profile + ext
}

// Location returns the file holding profile's token.
func (s *FileStore) Location(profile string) string {
	return s.profilePath(profile)
}

// Load reads profile's token. A missing file or one without an access
// token yields ErrNotFound.
func (s *FileStore) Load(_ context.Context, profile string) (trakt.Token, error) {
	path := s.profilePath(profile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return trakt.Token{}, ErrNotFound
	}
	if err != nil {
		return trakt.Token{}, fmt.Errorf("read credentials: %w", err)
	}
	var tok trakt.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return trakt.Token{}, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	if tok.AccessToken == "" {
		return trakt.Token{}, ErrNotFound
	}
	return tok, nil
}

// Save writes profile's token with owner-only permissions.
func (s *FileStore) Save(_ context.Context, profile string, tok trakt.Token) error {
	path := s.profilePath(profile)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Delete removes profile's file. A missing file is not an error.
func (s *FileStore) Delete(_ context.Context, profile string) error {
	if err := os.Remove(s.profilePath(profile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

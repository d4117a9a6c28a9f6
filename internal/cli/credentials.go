package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/me/trakt/internal/store"
	"github.com/me/trakt/pkg/trakt"
)

var errNotLoggedIn = errors.New("not logged in (run 'trakt login')")

// openStore opens the token store the settings name.
func openStore(ctx context.Context) (store.Store, error) {
	kind, path, err := settings.StoreLocation()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, kind, path, logger)
}

// loadCredentials reads the active profile's token. It returns
// errNotLoggedIn when there is none.
func loadCredentials(ctx context.Context, st store.Store) (trakt.Token, error) {
	tok, err := st.Load(ctx, settings.Profile)
	if errors.Is(err, store.ErrNotFound) {
		return trakt.Token{}, errNotLoggedIn
	}
	return tok, err
}

// restoreSession imports the stored token into client. A token refreshed
// on import is written back.
func restoreSession(ctx context.Context, client *trakt.Client, st store.Store) (trakt.Token, error) {
	stored, err := loadCredentials(ctx, st)
	if err != nil {
		return trakt.Token{}, err
	}
	tok, err := client.ImportToken(ctx, stored)
	if err != nil {
		return trakt.Token{}, fmt.Errorf("restore session: %w", err)
	}
	if tok != stored {
		if err := st.Save(ctx, settings.Profile, tok); err != nil {
			return trakt.Token{}, err
		}
		logger.Info("stored token refreshed", "profile", settings.Profile)
	}
	return tok, nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			tok, err := loadCredentials(ctx, st)
			if errors.Is(err, errNotLoggedIn) {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			if _, err := client.ImportToken(ctx, tok); err != nil {
				logger.Warn("could not refresh token before revoking", "error", err)
			}
			revokeErr := client.RevokeToken(ctx)

			if err := st.Delete(ctx, settings.Profile); err != nil {
				return err
			}
			if revokeErr != nil {
				return fmt.Errorf("credentials removed, but revoke failed: %w", revokeErr)
			}
			fmt.Fprintln(out, "Logged out.")
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the stored token, refreshing it if expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			client, err := newClient()
			if err != nil {
				return err
			}
			tok, err := restoreSession(cmd.Context(), client, st)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tok)
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			stored, err := loadCredentials(ctx, st)
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}

			// An expired token is already refreshed on import.
			tok, err := client.ImportToken(ctx, stored)
			if err != nil {
				return err
			}
			if tok == stored {
				if _, err := client.RefreshToken(ctx); err != nil {
					return err
				}
				tok = client.ExportToken()
			}

			if err := st.Save(ctx, settings.Profile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed, expires %s\n", tok.ExpiresAt().Format(time.RFC3339))
			return nil
		},
	}
}

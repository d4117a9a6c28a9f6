package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/trakt/pkg/trakt"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var (
		browser bool
		listen  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize trakt with your Trakt account",
		Long: "Authorize trakt with your Trakt account and store the token.\n\n" +
			"By default the device code flow is used: enter the printed code at the\n" +
			"printed URL. With --browser, open the printed URL instead; Trakt redirects\n" +
			"back to a local listener on --listen, which must match the redirect URI\n" +
			"registered for the application.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var tok trakt.Token
			if browser {
				tok, err = browserLogin(ctx, cmd.OutOrStdout(), listen)
			} else {
				tok, err = deviceLogin(ctx, cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			if err := st.Save(ctx, settings.Profile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", st.Location(settings.Profile))
			return nil
		},
	}

	cmd.Flags().BoolVar(&browser, "browser", false, "Use the browser authorization-code flow")
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8765", "Address of the local OAuth callback listener (--browser)")
	return cmd
}

// deviceLogin runs the device code flow until the user approves the code,
// it expires, or ctx is canceled.
func deviceLogin(ctx context.Context, out io.Writer) (trakt.Token, error) {
	client, err := newClient()
	if err != nil {
		return trakt.Token{}, err
	}

	codes, err := client.DeviceCodes(ctx)
	if err != nil {
		return trakt.Token{}, fmt.Errorf("request device code: %w", err)
	}
	fmt.Fprintf(out, "Go to %s and enter the code: %s\n", codes.VerificationURL, codes.UserCode)
	fmt.Fprintf(out, "Waiting for authorization (code expires in %s)...\n", time.Duration(codes.ExpiresIn)*time.Second)

	if _, err := client.PollAccess(ctx, codes); err != nil {
		return trakt.Token{}, fmt.Errorf("device login: %w", err)
	}
	return client.ExportToken(), nil
}

// callbackResult is what the OAuth redirect delivered.
type callbackResult struct {
	code  string
	state string
	err   error
}

// callbackRouter serves /callback and hands the first result to results.
func callbackRouter(results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		res := callbackResult{code: q.Get("code"), state: q.Get("state")}
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s %s", q.Get("error"), q.Get("error_description"))
		case res.code == "":
			res.err = errors.New("callback without authorization code")
		case res.state == "":
			res.err = errors.New("callback without state")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Authorization received. You can close this window.")
	})
	return r
}

// browserLogin runs the authorization-code flow with a loopback redirect
// listener on addr.
func browserLogin(ctx context.Context, out io.Writer, addr string) (trakt.Token, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return trakt.Token{}, fmt.Errorf("listen for callback: %w", err)
	}

	settings.RedirectURI = "http://" + ln.Addr().String() + "/callback"
	client, err := newClient()
	if err != nil {
		ln.Close()
		return trakt.Token{}, err
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackRouter(results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback listener", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Debug("callback listener started", "redirect_uri", settings.RedirectURI)
	fmt.Fprintf(out, "Open this URL in your browser:\n\n  %s\n\n", client.AuthURL())

	select {
	case <-ctx.Done():
		return trakt.Token{}, fmt.Errorf("browser login: %w", ctx.Err())
	case res := <-results:
		if res.err != nil {
			return trakt.Token{}, res.err
		}
		if _, err := client.ExchangeCode(ctx, res.code, res.state); err != nil {
			return trakt.Token{}, fmt.Errorf("exchange code: %w", err)
		}
	}
	return client.ExportToken(), nil
}

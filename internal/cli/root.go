package cli

import (
	"log/slog"

	"github.com/me/trakt/internal/config"
	"github.com/me/trakt/internal/logging"
	"github.com/me/trakt/pkg/trakt"
	"github.com/spf13/cobra"
)

var (
	flagConfig       string
	flagClientID     string
	flagClientSecret string
	flagAPIURL       string
	flagCredentials  string
	flagProfile      string
	flagDebug        bool
	flagLogLevel     string
	flagLogFormat    string

	logger   *slog.Logger
	settings config.Config
)

// NewRootCmd creates the root cobra command for the trakt CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trakt",
		Short: "trakt: command-line client for the Trakt API",
		Long: "trakt authorizes against Trakt with OAuth2 (device code or browser) and calls any\n" +
			"method of its endpoint table, printing the JSON response.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.trakt/config.yaml)")
	root.PersistentFlags().StringVar(&flagClientID, "client-id", "", "OAuth client id (or TRAKT_CLIENT_ID env)")
	root.PersistentFlags().StringVar(&flagClientSecret, "client-secret", "", "OAuth client secret (or TRAKT_CLIENT_SECRET env)")
	root.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API base URL (or TRAKT_API_URL env)")
	root.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "Credentials file (default ~/.trakt/credentials.json)")
	root.PersistentFlags().StringVar(&flagProfile, "profile", "", "Token profile to use (default \"default\")")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newTokenCmd(),
		newRefreshCmd(),
		newCallCmd(),
		newEndpointsCmd(),
	)

	return root
}

// loadSettings layers the config file, the environment and the flags, in
// that order, and builds the logger.
func loadSettings(cmd *cobra.Command) error {
	path := flagConfig
	required := path != ""
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flagClientID != "" {
		cfg.ClientID = flagClientID
	}
	if flagClientSecret != "" {
		cfg.ClientSecret = flagClientSecret
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagCredentials != "" {
		cfg.Credentials = flagCredentials
	}
	if flagProfile != "" {
		cfg.Profile = flagProfile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flagDebug {
		cfg.LogLevel = "debug"
	}

	settings = cfg
	logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

// newClient builds an API client from the loaded settings.
func newClient() (*trakt.Client, error) {
	cc, err := settings.ClientConfig()
	if err != nil {
		return nil, err
	}
	return trakt.NewClient(cc, logger)
}

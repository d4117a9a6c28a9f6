package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/me/trakt/pkg/trakt"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var paginate bool

	cmd := &cobra.Command{
		Use:   "call <method> [key=value ...]",
		Short: "Call an API method and print the JSON response",
		Long: "Call any method of the endpoint table (see 'trakt endpoints').\n\n" +
			"Values that parse as JSON (numbers, booleans, objects, lists) are sent as\n" +
			"such; everything else is a string. The stored token is used when present.",
		Example: "  trakt call shows/summary id=game-of-thrones extended=full\n" +
			"  trakt call search/text type=movie query=tron --paginate\n" +
			`  trakt call checkin/add 'movie={"ids":{"trakt":1}}' message=watching`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			if paginate {
				params[trakt.ParamPagination] = true
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if _, err := restoreSession(cmd.Context(), client, st); err != nil && !errors.Is(err, errNotLoggedIn) {
				return err
			}

			res, err := client.Call(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&paginate, "paginate", false, "Wrap the response as {data, pagination}")
	return cmd
}

// parseParams turns key=value arguments into call parameters.
func parseParams(args []string) (trakt.Params, error) {
	params := make(trakt.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", arg)
		}
		params[key] = parseValue(value)
	}
	return params, nil
}

// parseValue decodes s as JSON when it is valid JSON, keeping numbers as
// json.Number; otherwise s is returned as is.
func parseValue(s string) any {
	if !json.Valid([]byte(s)) {
		return s
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	return v
}

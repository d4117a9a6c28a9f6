package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/me/trakt/pkg/trakt"
	"github.com/spf13/cobra"
)

func newEndpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints [prefix]",
		Short: "List the methods of the endpoint table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := settings.Table()
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = trakt.MethodName(args[0])
			}

			type row struct {
				name string
				ep   trakt.Endpoint
			}
			var rows []row
			for _, key := range table.Keys() {
				name := trakt.MethodName(key)
				if name == "" || !strings.HasPrefix(name, prefix) {
					continue
				}
				rows = append(rows, row{name, table[key]})
			}
			slices.SortFunc(rows, func(a, b row) int { return strings.Compare(a.name, b.name) })

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No methods found.")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-6s  %-48s  %s\n", "METHOD", "VERB", "URL", "FLAGS")
			fmt.Fprintf(out, "%-36s  %-6s  %-48s  %s\n", "------", "----", "---", "-----")
			for _, r := range rows {
				fmt.Fprintf(out, "%-36s  %-6s  %-48s  %s\n", r.name, r.ep.Method, r.ep.URL, endpointFlags(r.ep))
			}
			return nil
		},
	}
}

func endpointFlags(ep trakt.Endpoint) string {
	var flags []string
	if ep.Opts.Auth != trakt.AuthNone {
		flags = append(flags, "auth="+ep.Opts.Auth.String())
	}
	if ep.Opts.Pagination {
		flags = append(flags, "pagination")
	}
	if ep.Opts.Extended {
		flags = append(flags, "extended")
	}
	return strings.Join(flags, ",")
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-explore/config"
	"github.com/ggoodman/mcp-explore/connect"
)

func stdioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stdio <command> [args...]",
		Short: "Launch a local server and talk to it over stdin/stdout",
		Long: `Launch a local server and talk to it over stdin/stdout.

Everything after the command is passed to the server untouched, so explorer
flags must come before it. The --call-tool NAME JSON form is the exception
and is recognised anywhere on the line.`,
		Example: "  mcp-explore stdio npx -y @upstash/context7-mcp\n" +
			"  mcp-explore stdio python server.py --call-tool echo '{\"text\":\"hi\"}'",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.explore(cmd.Context(), &connect.Stdio{
				Command: args[0],
				Args:    args[1:],
				Logger:  a.log,
			})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func httpCmd(a *app) *cobra.Command {
	var headers []string
	cmd := &cobra.Command{
		Use:   "http <url>",
		Short: "Connect to a remote server over streamable HTTP",
		Example: "  mcp-explore http https://mcp.example.com/mcp\n" +
			"  mcp-explore http http://localhost:8080/mcp --header \"Authorization=Bearer $TOKEN\"",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.explore(cmd.Context(), &connect.HTTP{
				URL:     args[0],
				Headers: parseHeaders(a.status, headers),
				Logger:  a.log,
			})
		},
	}
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra request header as KEY=VALUE (repeatable)")
	return cmd
}

func serverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "server <name>",
		Short: "Connect to a server defined in the catalog",
		Long: `Connect to a server defined in a YAML catalog (--config or MCPX_CONFIG).

  servers:
    calculator:
      transport: stdio
      command: go
      args: [run, ./examples/calculator]
    remote:
      transport: http
      url: https://mcp.example.com/mcp
      headers:
        Authorization: Bearer ${REMOTE_TOKEN}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.catalogPath
			if path == "" {
				path = a.env.Catalog
			}
			if path == "" {
				return fmt.Errorf("no catalog given: use --config or set MCPX_CONFIG")
			}
			cat, err := config.LoadCatalog(path)
			if err != nil {
				return err
			}
			s, err := cat.Strategy(args[0], a.log)
			if err != nil {
				return fmt.Errorf("%w (known: %s)", err, strings.Join(cat.Names(), ", "))
			}
			return a.explore(cmd.Context(), s)
		},
	}
}

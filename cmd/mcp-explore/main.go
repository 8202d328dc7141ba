// Command mcp-explore connects to an MCP server, lists everything it
// offers and optionally calls one of its tools.
//
//	mcp-explore stdio npx -y @upstash/context7-mcp
//	mcp-explore http https://mcp.example.com/mcp --header "Authorization=Bearer tok"
//	mcp-explore --call-tool calculate '{"operation":"add","a":2,"b":3}' server calculator
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
// Failures the explorer reports itself (connection problems, bad tool
// arguments, interrupts) exit 0; only usage errors exit 1.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	root.SetArgs(normalizeArgs(args, names))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "mcp-explore",
		Short: "Discover the tools, resources, prompts and resource templates of an MCP server",
		Long: `mcp-explore connects to a Model Context Protocol server over stdio or
streamable HTTP, lists every capability it offers and optionally calls one
tool with JSON arguments.

Environment (a .env file in the working directory is loaded first):
  MCPX_LOG_LEVEL    debug, info, warn or error (default warn)
  MCPX_LOG_FORMAT   text or json (default text)
  MCPX_TIMEOUT      per-request timeout (default 60s)
  MCPX_CLIENT_NAME  client name sent during initialize
  MCPX_CONFIG       default server catalog for the server command`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.callTool, "call-tool", "", "call this tool after discovery (also accepts --call-tool NAME JSON_ARGS)")
	pf.StringVar(&a.callArgs, "call-args", "{}", "JSON object of arguments for --call-tool")
	pf.StringVar(&a.format, "format", formatText, "output format: text, json or yaml")
	pf.BoolVar(&a.parallel, "parallel", false, "run the four discovery queries concurrently")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-request timeout (default MCPX_TIMEOUT)")
	pf.StringVar(&a.catalogPath, "config", "", "server catalog for the server command (default MCPX_CONFIG)")
	pf.StringSliceVar(&a.watch, "watch", nil, "explore again whenever one of these files or directories changes")

	root.AddCommand(
		stdioCmd(a),
		httpCmd(a),
		serverCmd(a),
	)
	return root
}

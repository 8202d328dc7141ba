package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-explore/auth"
	"github.com/ggoodman/mcp-explore/config"
	"github.com/ggoodman/mcp-explore/connect"
	"github.com/ggoodman/mcp-explore/explorer"
	"github.com/ggoodman/mcp-explore/mcp"
	"github.com/ggoodman/mcp-explore/mcpclient"
	"github.com/ggoodman/mcp-explore/render"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// app carries flag values and the environment shared by every subcommand.
type app struct {
	stdout, stderr io.Writer
	// status receives progress lines. It is stdout for text output and
	// stderr otherwise, so machine-readable output stays clean.
	status io.Writer

	callTool    string
	callArgs    string
	format      string
	parallel    bool
	timeout     time.Duration
	catalogPath string
	watch       []string

	env *config.Env
	log *slog.Logger
}

// setup runs before every subcommand.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.format {
	case formatText:
		a.status = a.stdout
	case formatJSON, formatYAML:
		a.status = a.stderr
	default:
		return fmt.Errorf("unknown format %q: want text, json or yaml", a.format)
	}

	env, err := config.LoadEnv(".env")
	if err != nil {
		return err
	}
	log, err := env.NewLogger(a.stderr)
	if err != nil {
		return err
	}
	a.env, a.log = env, log
	if a.timeout <= 0 {
		a.timeout = env.Timeout
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.status, format, args...)
}

// run connects with s, reports what the server offers and optionally calls
// a tool. Failures are printed rather than returned; "Disconnected." is
// printed on every path once a connection has been attempted.
func (a *app) run(ctx context.Context, s connect.Strategy) error {
	a.printf("Connecting via %s: %s\n", kindLabel(s.Kind()), s)

	var sess *mcpclient.Session
	defer func() {
		if sess != nil {
			if err := sess.Close(); err != nil {
				a.log.Debug("session.close.fail", slog.String("err", err.Error()))
			}
		}
		a.printf("\nDisconnected.\n")
	}()

	if h, ok := s.(*connect.HTTP); ok {
		a.warnExpiredToken(authorization(h.Headers))
	}

	sess, err := connect.Connect(ctx, s,
		mcpclient.WithLogger(a.log),
		mcpclient.WithClientInfo(mcp.ImplementationInfo{Name: a.env.ClientName, Version: version}),
		mcpclient.WithRequestTimeout(a.timeout),
	)
	if err != nil {
		a.connectFailed(ctx, s, err)
		return nil
	}

	report, failed := a.discover(ctx, sess)
	if ctx.Err() != nil {
		a.printf("\nInterrupted.\n")
		return nil
	}

	if a.format != formatText {
		return a.writeDocument(ctx, sess, report, failed)
	}

	if err := render.Text(a.stdout, report); err != nil {
		return err
	}
	if a.callTool == "" {
		return nil
	}

	inv, err := explorer.Invoke(ctx, sess, a.callTool, a.callArgs)
	var (
		argErr  *explorer.ArgumentError
		callErr *explorer.InvocationError
	)
	switch {
	case errors.As(err, &argErr):
		a.printf("\nError: %v\n", argErr)
	case ctx.Err() != nil:
		a.printf("\nInterrupted.\n")
	case errors.As(err, &callErr):
		if err := render.Header(a.stdout, "Calling tool: "+a.callTool); err != nil {
			return err
		}
		args, _ := explorer.ParseArguments(a.callArgs)
		a.printf("  Arguments: %s\n", explorer.MarshalIndent(args))
		a.printf("\n  Tool call failed: %v\n", callErr.Err)
	case err != nil:
		a.printf("\nError: %v\n", err)
	default:
		return render.Invocation(a.stdout, inv)
	}
	return nil
}

// discover prints the server banner and gathers the report along with
// the categories that could not be listed. In text mode failures are
// printed as they happen.
func (a *app) discover(ctx context.Context, sess *mcpclient.Session) (*explorer.Report, []string) {
	var failed []string
	onError := func(ce *explorer.CategoryError) {
		failed = append(failed, ce.Error())
	}
	if a.format == formatText {
		_ = render.ServerInfo(a.stdout, explorer.NewReport(explorer.ServerInfoFrom(sess.InitializeResult())))
		_ = render.Discovering(a.stdout)
		onError = func(ce *explorer.CategoryError) {
			a.printf("  Could not list %s: %v\n", ce.Kind, ce.Err)
		}
	}
	report := explorer.DiscoverAll(ctx, sess,
		explorer.WithConcurrency(a.parallel),
		explorer.WithLogger(a.log),
		explorer.OnCategoryError(onError),
	)
	return report, failed
}

func (a *app) writeDocument(ctx context.Context, sess *mcpclient.Session, report *explorer.Report, failed []string) error {
	doc := render.NewDocument(report)
	doc.Errors = failed
	if a.callTool != "" {
		inv, err := explorer.Invoke(ctx, sess, a.callTool, a.callArgs)
		doc.SetInvocation(a.callTool, inv, err)
	}
	if a.format == formatYAML {
		return render.YAML(a.stdout, doc)
	}
	return render.JSON(a.stdout, doc)
}

// connectFailed explains why no session could be established. An
// authorization challenge is followed up with metadata discovery.
func (a *app) connectFailed(ctx context.Context, s connect.Strategy, err error) {
	if ctx.Err() != nil {
		a.printf("\nInterrupted.\n")
		return
	}

	var ch *auth.Challenge
	h, isHTTP := s.(*connect.HTTP)
	if !errors.As(err, &ch) || !isHTTP {
		a.printf("Error: %v\n", err)
		return
	}

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	auth.Discover(ctx, client, h.URL, ch, authorization(h.Headers))
	a.printf("Error: %v\n", ch)
	_ = render.Challenge(a.status, ch, time.Now())
}

func (a *app) warnExpiredToken(header string) {
	if header == "" {
		return
	}
	ti, err := auth.InspectBearer(header)
	if err != nil {
		return
	}
	if ti.Expired(time.Now()) {
		a.printf("Warning: bearer token expired at %s\n", ti.ExpiresAt.Format(time.RFC3339))
	}
}

func kindLabel(kind string) string {
	if kind == "http" {
		return "HTTP"
	}
	return kind
}

// authorization finds the Authorization header, whatever its case.
func authorization(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "Authorization") {
			return v
		}
	}
	return ""
}

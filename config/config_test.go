package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ggoodman/mcp-explore/connect"
)

func TestLoadEnv_Defaults(t *testing.T) {
	for _, k := range []string{"MCPX_LOG_LEVEL", "MCPX_LOG_FORMAT", "MCPX_TIMEOUT", "MCPX_CLIENT_NAME", "MCPX_CONFIG"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	e, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.LogLevel != "warn" || e.LogFormat != "text" || e.Timeout != time.Minute || e.ClientName != "mcp-explore" || e.Catalog != "" {
		t.Fatalf("unexpected defaults %+v", e)
	}
}

func TestLoadEnv_DotenvDoesNotOverride(t *testing.T) {
	t.Setenv("MCPX_LOG_LEVEL", "debug")
	// godotenv only fills variables that are absent, so unset them; Setenv
	// restores the originals afterwards.
	for _, k := range []string{"MCPX_TIMEOUT", "MCPX_CONFIG"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MCPX_LOG_LEVEL=error\nMCPX_TIMEOUT=5s\nMCPX_CONFIG=servers.yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.LogLevel != "debug" {
		t.Errorf("process environment should win, got %q", e.LogLevel)
	}
	if e.Timeout != 5*time.Second || e.Catalog != "servers.yaml" {
		t.Errorf("dotenv values not applied: %+v", e)
	}
}

func TestEnv_NewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := &Env{LogLevel: "info", LogFormat: "json"}
	log, err := e.NewLogger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("shown", slog.String("k", "v"))
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected output %q", out)
	}

	for _, bad := range []*Env{{LogLevel: "loud", LogFormat: "text"}, {LogLevel: "info", LogFormat: "xml"}} {
		if _, err := bad.NewLogger(&buf); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}
}

const catalogYAML = `
servers:
  calc:
    transport: stdio
    command: go
    args: [run, ./examples/calculator]
    env:
      TOKEN: ${CATALOG_TEST_TOKEN}
  remote:
    transport: http
    url: https://mcp.example.com/mcp
    headers:
      Authorization: Bearer ${CATALOG_TEST_TOKEN}
`

func TestCatalog_Strategy(t *testing.T) {
	t.Setenv("CATALOG_TEST_TOKEN", "s3cret")

	c, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := strings.Join(c.Names(), ","); got != "calc,remote" {
		t.Fatalf("names = %s", got)
	}

	s, err := c.Strategy("calc", nil)
	if err != nil {
		t.Fatal(err)
	}
	st, ok := s.(*connect.Stdio)
	if !ok || st.Command != "go" || len(st.Args) != 2 || st.Env["TOKEN"] != "s3cret" {
		t.Fatalf("unexpected stdio strategy %#v", s)
	}

	s, err = c.Strategy("remote", nil)
	if err != nil {
		t.Fatal(err)
	}
	h, ok := s.(*connect.HTTP)
	if !ok || h.URL != "https://mcp.example.com/mcp" || h.Headers["Authorization"] != "Bearer s3cret" {
		t.Fatalf("unexpected http strategy %#v", s)
	}

	if _, err := c.Strategy("nope", nil); err == nil {
		t.Fatalf("expected error for unknown server")
	}
}

func TestCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing command", "servers:\n  a:\n    transport: stdio\n", `server "a": stdio transport requires a command`},
		{"missing url", "servers:\n  b:\n    transport: http\n", `server "b": http transport requires a url`},
		{"unknown transport", "servers:\n  c:\n    transport: carrier-pigeon\n", `unknown transport "carrier-pigeon"`},
		{"no transport", "servers:\n  d:\n    command: x\n", `server "d": transport is required`},
		{"unknown key", "servers:\n  e:\n    transport: stdio\n    comand: x\n", "comand"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCatalog([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil || len(c.Servers) != 2 {
		t.Fatalf("load: %v", err)
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ggoodman/mcp-explore/auth"
	"github.com/ggoodman/mcp-explore/explorer"
	"github.com/ggoodman/mcp-explore/internal/wellknown"
	"github.com/ggoodman/mcp-explore/mcp"
)

func ptr(s string) *string { return &s }

var rule = strings.Repeat("=", 60)

func TestHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Header(&buf, "Tools (2)"); err != nil {
		t.Fatal(err)
	}
	want := "\n" + rule + "\n  Tools (2)\n" + rule + "\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestText_SummaryAndNoneFound(t *testing.T) {
	t.Parallel()

	r := explorer.NewReport(nil,
		explorer.Tool{Name: "add"},
		explorer.Tool{Name: "sub"},
		explorer.Prompt{Name: "greet"},
	)

	var buf bytes.Buffer
	if err := Text(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"  Tools (2)\n" + rule + "\n\n  [1] add\n\n  [2] sub\n",
		"  Resources (0)\n" + rule + "\n  None found.\n",
		"  Prompts (1)\n" + rule + "\n\n  [1] greet\n",
		"  Resource Templates (0)\n" + rule + "\n  None found.\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	wantSummary := "\n" + rule + "\n  Summary\n" + rule + "\n" +
		"  Tools:              2\n" +
		"  Resources:          0\n" +
		"  Prompts:            1\n" +
		"  Resource Templates: 0\n" +
		"  Total capabilities: 3\n"
	if !strings.HasSuffix(out, wantSummary) {
		t.Errorf("summary mismatch:\n%s", out)
	}
}

func TestText_Entries(t *testing.T) {
	t.Parallel()

	r := explorer.NewReport(nil,
		explorer.Tool{
			Name:        "search",
			Description: ptr("Find documents"),
			Params: []explorer.Param{
				{Name: "q", Type: "string", Required: true, Description: ptr("Query text")},
				{Name: "limit", Type: "any"},
			},
		},
		explorer.Resource{URI: "file:///a", Name: ptr("a"), MIMEType: ptr("text/plain")},
		explorer.Prompt{
			Name:        "review",
			Description: ptr("Review code"),
			Arguments: []explorer.PromptArgument{
				{Name: "diff", Required: true, Description: ptr("The change")},
				{Name: "tone"},
			},
		},
		explorer.ResourceTemplate{URITemplate: "file:///{p}", Description: ptr("Any file")},
	)

	var buf bytes.Buffer
	if err := Text(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"\n  [1] search\n      Description: Find documents\n      Parameters:\n        - q: string (required)\n          Query text\n        - limit: any\n",
		"\n  [1] file:///a\n      Name: a\n      MIME type: text/plain\n",
		"\n  [1] review\n      Description: Review code\n      Arguments:\n        - diff (required)\n          The change\n        - tone\n",
		"\n  [1] file:///{p}\n      Description: Any file\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "None found.") {
		t.Errorf("no category is empty:\n%s", out)
	}
}

func TestText_Truncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 201)
	exact := strings.Repeat("y", 200)
	paramLong := strings.Repeat("p", 101)

	r := explorer.NewReport(nil,
		explorer.Tool{Name: "long", Description: &long, Params: []explorer.Param{{Name: "a", Type: "string", Description: &paramLong}}},
		explorer.Tool{Name: "exact", Description: &exact},
	)

	var buf bytes.Buffer
	if err := Text(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "Description: "+strings.Repeat("x", 200)+"...\n") {
		t.Errorf("long description not truncated to 200 + ellipsis")
	}
	if !strings.Contains(out, "Description: "+exact+"\n") {
		t.Errorf("200-character description must be verbatim")
	}
	if !strings.Contains(out, "          "+strings.Repeat("p", 100)+"...\n") {
		t.Errorf("parameter description not truncated to 100 + ellipsis")
	}
}

func TestTruncate_Runes(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("é", 5)
	if got := Truncate(s, 3); got != "ééé..." {
		t.Fatalf("got %q", got)
	}
	if got := Truncate(s, 5); got != s {
		t.Fatalf("got %q", got)
	}
}

func TestInvocation(t *testing.T) {
	t.Parallel()

	inv := &explorer.Invocation{
		Tool:      "calculate",
		Arguments: map[string]any{"a": json.Number("2")},
		IsError:   true,
		Content: []mcp.ContentBlock{
			{Type: mcp.ContentTypeText, Text: `{"a":1}`},
			{Type: mcp.ContentTypeText, Text: "plain text"},
		},
	}

	var buf bytes.Buffer
	if err := Invocation(&buf, inv); err != nil {
		t.Fatal(err)
	}
	want := "\n" + rule + "\n  Calling tool: calculate\n" + rule + "\n" +
		"  Arguments: {\n  \"a\": 2\n}\n" +
		"\n  Result:\n" +
		"  (tool reported an error)\n" +
		"  {\n    \"a\": 1\n  }\n" +
		"  plain text\n"
	if buf.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestInvocation_StructuredOnly(t *testing.T) {
	t.Parallel()

	inv := &explorer.Invocation{Tool: "t", Arguments: map[string]any{}, Structured: map[string]any{"ok": true}}
	var buf bytes.Buffer
	if err := Invocation(&buf, inv); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "  Structured content:\n  {\n    \"ok\": true\n  }\n") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestServerInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := ServerInfo(&buf, explorer.NewReport(nil)); err != nil || buf.Len() != 0 {
		t.Fatalf("unknown server should print nothing, got %q", buf.String())
	}

	r := explorer.NewReport(&explorer.ServerInfo{Name: "calc", Version: "1.0", ProtocolVersion: "2025-06-18"})
	if err := ServerInfo(&buf, r); err != nil {
		t.Fatal(err)
	}
	if want := "Server: calc 1.0\nProtocol version: 2025-06-18\n"; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestChallenge(t *testing.T) {
	t.Parallel()

	exp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &auth.Challenge{
		StatusCode:          401,
		Scheme:              "Bearer",
		Params:              map[string]string{"error": "invalid_token", "error_description": "expired", "scope": "read write"},
		ResourceMetadataURL: "https://mcp.example.com/.well-known/oauth-protected-resource",
		Resource:            &wellknown.ProtectedResourceMetadata{Resource: "https://mcp.example.com"},
		AuthServer:          &wellknown.AuthServerMetadata{Issuer: "https://id.example.com", TokenEndpoint: "https://id.example.com/token"},
		Token:               &auth.TokenInfo{Subject: "alice", ExpiresAt: &exp},
		TokenChecked:        true,
		TokenErr:            errors.New("token is expired"),
		Notes:               []string{"something was skipped"},
	}

	var buf bytes.Buffer
	if err := Challenge(&buf, c, exp.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"  Status:               HTTP 401\n",
		"  Error:                invalid_token (expired)\n",
		"  Scopes requested:     read write\n",
		"  Authorization server: https://id.example.com\n",
		"    Token endpoint:         https://id.example.com/token\n",
		"    Subject:   alice\n",
		"    Expires:   2024-01-01T00:00:00Z (expired)\n",
		"    Verified:  no, token is expired\n",
		"  Note: something was skipped\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Authorization endpoint") {
		t.Errorf("absent endpoints must not be printed")
	}
}

func TestDocument(t *testing.T) {
	t.Parallel()

	r := explorer.NewReport(&explorer.ServerInfo{Name: "calc", Version: "1.0"},
		explorer.Tool{Name: "calculate", Params: []explorer.Param{{Name: "a", Type: "number", Required: true}}},
	)
	d := NewDocument(r)
	d.SetInvocation("calculate", &explorer.Invocation{
		Tool:      "calculate",
		Arguments: map[string]any{"a": json.Number("2")},
		Content:   []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: `{"result":4}`}},
	}, nil)

	var jbuf bytes.Buffer
	if err := JSON(&jbuf, d); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Tools     []map[string]any `json:"tools"`
		Resources []any            `json:"resources"`
		Summary   Summary          `json:"summary"`
	}
	if err := json.Unmarshal(jbuf.Bytes(), &decoded); err != nil {
		t.Fatalf("json: %v\n%s", err, jbuf.String())
	}
	if decoded.Resources == nil || len(decoded.Resources) != 0 {
		t.Errorf("empty category should be an empty list")
	}
	if decoded.Summary.Total != 1 || decoded.Summary.Tools != 1 {
		t.Errorf("unexpected summary %+v", decoded.Summary)
	}

	var ybuf bytes.Buffer
	if err := YAML(&ybuf, d); err != nil {
		t.Fatal(err)
	}
	var y struct {
		Server     explorer.ServerInfo `yaml:"server"`
		Invocation struct {
			Arguments map[string]any `yaml:"arguments"`
			Content   []string       `yaml:"content"`
		} `yaml:"invocation"`
	}
	if err := yaml.Unmarshal(ybuf.Bytes(), &y); err != nil {
		t.Fatalf("yaml: %v\n%s", err, ybuf.String())
	}
	if y.Server.Name != "calc" {
		t.Errorf("server name = %q", y.Server.Name)
	}
	if y.Invocation.Arguments["a"] != 2 {
		t.Errorf("argument should be a YAML number, got %#v", y.Invocation.Arguments["a"])
	}
	if len(y.Invocation.Content) != 1 || y.Invocation.Content[0] != "{\n  \"result\": 4\n}" {
		t.Errorf("unexpected content %q", y.Invocation.Content)
	}
}

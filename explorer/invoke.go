package explorer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ggoodman/mcp-explore/mcp"
)

// Caller is the part of a session Invoke needs.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// ArgumentError reports tool arguments that are not a JSON object. It is
// returned before the session is used.
type ArgumentError struct {
	Input string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid JSON for tool arguments: %v", e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// InvocationError reports a tool call that did not produce a result.
type InvocationError struct {
	Tool string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool call %q failed: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Invocation is a completed tool call.
type Invocation struct {
	Tool      string         `json:"tool" yaml:"tool"`
	Arguments map[string]any `json:"arguments" yaml:"arguments"`
	// IsError is set when the tool itself reported a failure. The content
	// then describes it.
	IsError    bool               `json:"isError,omitempty" yaml:"isError,omitempty"`
	Content    []mcp.ContentBlock `json:"content" yaml:"content"`
	Structured map[string]any     `json:"structuredContent,omitempty" yaml:"structuredContent,omitempty"`
}

// ParseArguments decodes argumentsJSON, which must be a single JSON object.
// Blank input is not JSON and is rejected like any other malformed input.
func ParseArguments(argumentsJSON string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(argumentsJSON))
	dec.UseNumber()

	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, &ArgumentError{Input: argumentsJSON, Err: err}
	}
	if args == nil {
		return nil, &ArgumentError{Input: argumentsJSON, Err: errors.New("arguments must be a JSON object, got null")}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ArgumentError{Input: argumentsJSON, Err: errors.New("unexpected data after the arguments object")}
	}
	return args, nil
}

// Invoke calls the named tool with argumentsJSON. Malformed arguments fail
// with *ArgumentError without calling c; a failed call is an
// *InvocationError.
func Invoke(ctx context.Context, c Caller, name, argumentsJSON string) (*Invocation, error) {
	args, err := ParseArguments(argumentsJSON)
	if err != nil {
		return nil, err
	}

	res, err := c.CallTool(ctx, name, args)
	if err != nil {
		return nil, &InvocationError{Tool: name, Err: err}
	}

	return &Invocation{
		Tool:       name,
		Arguments:  args,
		IsError:    res.IsError,
		Content:    res.Content,
		Structured: res.StructuredContent,
	}, nil
}

// Blocks renders each content block as display text. Text that parses as
// JSON is pretty-printed with a two-space indent; other text is returned
// unchanged. Blocks without text get a one-line summary.
func (inv *Invocation) Blocks() []string {
	out := make([]string, 0, len(inv.Content))
	for _, b := range inv.Content {
		out = append(out, RenderBlock(b))
	}
	return out
}

// RenderBlock renders a single content block. See Invocation.Blocks.
func RenderBlock(b mcp.ContentBlock) string {
	switch b.Type {
	case mcp.ContentTypeText:
		if pretty, ok := PrettyJSON(b.Text); ok {
			return pretty
		}
		return b.Text
	case mcp.ContentTypeImage, mcp.ContentTypeAudio:
		return fmt.Sprintf("[%s %s, %d bytes]", b.Type, b.MimeType, decodedLen(b.Data))
	case mcp.ContentTypeResource:
		if b.Resource != nil {
			return fmt.Sprintf("[resource %s]", b.Resource.URI)
		}
	case mcp.ContentTypeResourceLink:
		return fmt.Sprintf("[resource_link %s]", b.URI)
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Sprintf("[%s]", b.Type)
	}
	return string(raw)
}

// PrettyJSON re-indents s with two spaces if it is a single JSON value.
func PrettyJSON(s string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", false
	}
	return MarshalIndent(v), true
}

// MarshalIndent encodes v with a two-space indent and without HTML
// escaping.
func MarshalIndent(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func decodedLen(data string) int {
	if b, err := base64.StdEncoding.DecodeString(data); err == nil {
		return len(b)
	}
	return len(data)
}

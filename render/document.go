package render

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ggoodman/mcp-explore/explorer"
)

// Document is the machine-readable form of a run.
type Document struct {
	Server            *explorer.ServerInfo        `json:"server,omitempty" yaml:"server,omitempty"`
	Tools             []explorer.Tool             `json:"tools" yaml:"tools"`
	Resources         []explorer.Resource         `json:"resources" yaml:"resources"`
	Prompts           []explorer.Prompt           `json:"prompts" yaml:"prompts"`
	ResourceTemplates []explorer.ResourceTemplate `json:"resourceTemplates" yaml:"resourceTemplates"`
	Summary           Summary                     `json:"summary" yaml:"summary"`
	// Errors lists the categories that could not be listed.
	Errors     []string         `json:"errors,omitempty" yaml:"errors,omitempty"`
	Invocation *InvocationEntry `json:"invocation,omitempty" yaml:"invocation,omitempty"`
}

// Summary holds the per-category counts.
type Summary struct {
	Tools             int `json:"tools" yaml:"tools"`
	Resources         int `json:"resources" yaml:"resources"`
	Prompts           int `json:"prompts" yaml:"prompts"`
	ResourceTemplates int `json:"resourceTemplates" yaml:"resourceTemplates"`
	Total             int `json:"total" yaml:"total"`
}

// InvocationEntry is a tool call as it appears in a Document. Content
// blocks are rendered the same way as for the terminal.
type InvocationEntry struct {
	Tool       string         `json:"tool" yaml:"tool"`
	Arguments  map[string]any `json:"arguments" yaml:"arguments"`
	IsError    bool           `json:"isError,omitempty" yaml:"isError,omitempty"`
	Content    []string       `json:"content,omitempty" yaml:"content,omitempty"`
	Structured map[string]any `json:"structuredContent,omitempty" yaml:"structuredContent,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewDocument builds a Document from r. Empty categories are empty lists,
// never null.
func NewDocument(r *explorer.Report) *Document {
	d := &Document{
		Tools:             nonNil(r.Tools()),
		Resources:         nonNil(r.Resources()),
		Prompts:           nonNil(r.Prompts()),
		ResourceTemplates: nonNil(r.ResourceTemplates()),
		Summary: Summary{
			Tools:             r.Count(explorer.KindTool),
			Resources:         r.Count(explorer.KindResource),
			Prompts:           r.Count(explorer.KindPrompt),
			ResourceTemplates: r.Count(explorer.KindResourceTemplate),
			Total:             r.Total(),
		},
	}
	if info, ok := r.Server(); ok {
		d.Server = &info
	}
	return d
}

// SetInvocation records a tool call outcome. Exactly one of inv and err is
// expected to be non-nil.
func (d *Document) SetInvocation(tool string, inv *explorer.Invocation, err error) {
	e := &InvocationEntry{Tool: tool}
	if inv != nil {
		e.Arguments = plain(inv.Arguments)
		e.IsError = inv.IsError
		e.Content = inv.Blocks()
		e.Structured = inv.Structured
	}
	if err != nil {
		e.Error = err.Error()
	}
	d.Invocation = e
}

// JSON writes d as indented JSON.
func JSON(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

// YAML writes d as a YAML document.
func YAML(w io.Writer, d *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// plain converts json.Number leaves into float64 so that YAML renders them
// as numbers.
func plain(m map[string]any) map[string]any {
	b, err := json.Marshal(m)
	if err != nil {
		return m
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return m
	}
	return out
}

package explorer

import "github.com/ggoodman/mcp-explore/mcp"

// Kind identifies one of the four capability categories.
type Kind string

const (
	KindTool             Kind = "tools"
	KindResource         Kind = "resources"
	KindPrompt           Kind = "prompts"
	KindResourceTemplate Kind = "resource templates"
)

// Kinds lists every category in display order.
var Kinds = []Kind{KindTool, KindResource, KindPrompt, KindResourceTemplate}

// Capability is one of Tool, Resource, Prompt or ResourceTemplate. The set
// is closed.
type Capability interface {
	Kind() Kind
	// ID is the name or URI the capability is addressed by.
	ID() string
	isCapability()
}

var (
	_ Capability = Tool{}
	_ Capability = Resource{}
	_ Capability = Prompt{}
	_ Capability = ResourceTemplate{}
)

// Tool is a callable tool and the parameters of its input schema.
type Tool struct {
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Params      []Param `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param is one property of a tool's input schema, in schema order.
type Param struct {
	Name string `json:"name" yaml:"name"`
	// Type is the schema type, "any" when the schema gives none.
	Type        string  `json:"type" yaml:"type"`
	Required    bool    `json:"required" yaml:"required"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (Tool) Kind() Kind    { return KindTool }
func (t Tool) ID() string  { return t.Name }
func (Tool) isCapability() {}

// Resource is a readable resource.
type Resource struct {
	URI         string  `json:"uri" yaml:"uri"`
	Name        *string `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	MIMEType    *string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
}

func (Resource) Kind() Kind    { return KindResource }
func (r Resource) ID() string  { return r.URI }
func (Resource) isCapability() {}

// Prompt is a prompt template and its arguments.
type Prompt struct {
	Name        string           `json:"name" yaml:"name"`
	Description *string          `json:"description,omitempty" yaml:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool    `json:"required" yaml:"required"`
}

func (Prompt) Kind() Kind    { return KindPrompt }
func (p Prompt) ID() string  { return p.Name }
func (Prompt) isCapability() {}

// ResourceTemplate is a parameterized resource URI.
type ResourceTemplate struct {
	URITemplate string  `json:"uriTemplate" yaml:"uriTemplate"`
	Name        *string `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	MIMEType    *string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
}

func (ResourceTemplate) Kind() Kind    { return KindResourceTemplate }
func (t ResourceTemplate) ID() string  { return t.URITemplate }
func (ResourceTemplate) isCapability() {}

// optional returns nil for the empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FromTool converts a wire tool descriptor.
func FromTool(t mcp.Tool) Tool {
	return Tool{
		Name:        t.Name,
		Description: optional(t.Description),
		Params:      schemaParams(t.InputSchema),
	}
}

// FromResource converts a wire resource descriptor.
func FromResource(r mcp.Resource) Resource {
	return Resource{
		URI:         r.URI,
		Name:        optional(r.Name),
		Description: optional(r.Description),
		MIMEType:    optional(r.MimeType),
	}
}

// FromPrompt converts a wire prompt descriptor.
func FromPrompt(p mcp.Prompt) Prompt {
	out := Prompt{Name: p.Name, Description: optional(p.Description)}
	for _, a := range p.Arguments {
		out.Arguments = append(out.Arguments, PromptArgument{
			Name:        a.Name,
			Description: optional(a.Description),
			Required:    a.Required,
		})
	}
	return out
}

// FromResourceTemplate converts a wire resource template descriptor.
func FromResourceTemplate(t mcp.ResourceTemplate) ResourceTemplate {
	return ResourceTemplate{
		URITemplate: t.URITemplate,
		Name:        optional(t.Name),
		Description: optional(t.Description),
		MIMEType:    optional(t.MimeType),
	}
}

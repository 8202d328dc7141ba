package explorer

import (
	"slices"

	"github.com/ggoodman/mcp-explore/mcp"
)

// ServerInfo is what the server said about itself during the handshake.
type ServerInfo struct {
	Name            string `json:"name" yaml:"name"`
	Version         string `json:"version" yaml:"version"`
	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	ProtocolVersion string `json:"protocolVersion" yaml:"protocolVersion"`
	Instructions    string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// ServerInfoFrom extracts the server description from a handshake result.
func ServerInfoFrom(res mcp.InitializeResult) *ServerInfo {
	return &ServerInfo{
		Name:            res.ServerInfo.Name,
		Version:         res.ServerInfo.Version,
		Title:           res.ServerInfo.Title,
		ProtocolVersion: res.ProtocolVersion,
		Instructions:    res.Instructions,
	}
}

// Report is the outcome of discovery. It cannot be changed once built;
// accessors return copies.
type Report struct {
	server    *ServerInfo
	tools     []Tool
	resources []Resource
	prompts   []Prompt
	templates []ResourceTemplate
}

// NewReport sorts caps into their categories, keeping their relative
// order. server may be nil.
func NewReport(server *ServerInfo, caps ...Capability) *Report {
	r := &Report{}
	if server != nil {
		s := *server
		r.server = &s
	}
	for _, c := range caps {
		switch c := c.(type) {
		case Tool:
			r.tools = append(r.tools, c)
		case Resource:
			r.resources = append(r.resources, c)
		case Prompt:
			r.prompts = append(r.prompts, c)
		case ResourceTemplate:
			r.templates = append(r.templates, c)
		}
	}
	return r
}

// Server returns the server's self-description, if known.
func (r *Report) Server() (ServerInfo, bool) {
	if r.server == nil {
		return ServerInfo{}, false
	}
	return *r.server, true
}

func (r *Report) Tools() []Tool                         { return slices.Clone(r.tools) }
func (r *Report) Resources() []Resource                 { return slices.Clone(r.resources) }
func (r *Report) Prompts() []Prompt                     { return slices.Clone(r.prompts) }
func (r *Report) ResourceTemplates() []ResourceTemplate { return slices.Clone(r.templates) }

// Count returns the number of capabilities of kind k.
func (r *Report) Count(k Kind) int {
	switch k {
	case KindTool:
		return len(r.tools)
	case KindResource:
		return len(r.resources)
	case KindPrompt:
		return len(r.prompts)
	case KindResourceTemplate:
		return len(r.templates)
	}
	return 0
}

// Total returns the number of capabilities across all categories.
func (r *Report) Total() int {
	return len(r.tools) + len(r.resources) + len(r.prompts) + len(r.templates)
}

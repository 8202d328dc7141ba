// Package render formats discovery reports, tool results and
// authorization challenges for a terminal, plus JSON and YAML documents
// for machines.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ggoodman/mcp-explore/explorer"
)

const (
	ruleWidth             = 60
	maxToolDescription    = 200
	maxParamDescription   = 100
	ellipsis              = "..."
	noneFound             = "  None found."
	summaryTitle          = "Summary"
	discoveringTitle      = "Discovering server capabilities..."
	requiredSuffix        = " (required)"
	toolReportedError     = "  (tool reported an error)"
	structuredContentHead = "  Structured content:"
)

// printer remembers the first write error so that formatting code can
// ignore errors until the end.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}

// Truncate shortens s to max characters followed by "..." when it is
// longer. Characters are counted as runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + ellipsis
}

// Header prints a title between two rules, preceded by a blank line.
func Header(w io.Writer, title string) error {
	p := &printer{w: w}
	header(p, title)
	return p.err
}

func header(p *printer, title string) {
	rule := strings.Repeat("=", ruleWidth)
	p.printf("\n%s\n  %s\n%s\n", rule, title, rule)
}

// Discovering prints the banner shown while discovery runs.
func Discovering(w io.Writer) error {
	return Header(w, discoveringTitle)
}

// Text prints every category of r followed by the summary.
func Text(w io.Writer, r *explorer.Report) error {
	p := &printer{w: w}
	tools(p, r.Tools())
	resources(p, r.Resources())
	prompts(p, r.Prompts())
	templates(p, r.ResourceTemplates())
	summary(p, r)
	return p.err
}

func section(p *printer, title string, n int) bool {
	header(p, fmt.Sprintf("%s (%d)", title, n))
	if n == 0 {
		p.println(noneFound)
		return false
	}
	return true
}

func tools(p *printer, ts []explorer.Tool) {
	if !section(p, "Tools", len(ts)) {
		return
	}
	for i, t := range ts {
		p.printf("\n  [%d] %s\n", i+1, t.Name)
		if t.Description != nil {
			p.printf("      Description: %s\n", Truncate(*t.Description, maxToolDescription))
		}
		if len(t.Params) == 0 {
			continue
		}
		p.println("      Parameters:")
		for _, param := range t.Params {
			req := ""
			if param.Required {
				req = requiredSuffix
			}
			p.printf("        - %s: %s%s\n", param.Name, param.Type, req)
			if param.Description != nil {
				p.printf("          %s\n", Truncate(*param.Description, maxParamDescription))
			}
		}
	}
}

func resources(p *printer, rs []explorer.Resource) {
	if !section(p, "Resources", len(rs)) {
		return
	}
	for i, r := range rs {
		p.printf("\n  [%d] %s\n", i+1, r.URI)
		field(p, "Name", r.Name)
		field(p, "Description", r.Description)
		field(p, "MIME type", r.MIMEType)
	}
}

func prompts(p *printer, ps []explorer.Prompt) {
	if !section(p, "Prompts", len(ps)) {
		return
	}
	for i, pr := range ps {
		p.printf("\n  [%d] %s\n", i+1, pr.Name)
		field(p, "Description", pr.Description)
		if len(pr.Arguments) == 0 {
			continue
		}
		p.println("      Arguments:")
		for _, a := range pr.Arguments {
			req := ""
			if a.Required {
				req = requiredSuffix
			}
			p.printf("        - %s%s\n", a.Name, req)
			if a.Description != nil {
				p.printf("          %s\n", *a.Description)
			}
		}
	}
}

func templates(p *printer, ts []explorer.ResourceTemplate) {
	if !section(p, "Resource Templates", len(ts)) {
		return
	}
	for i, t := range ts {
		p.printf("\n  [%d] %s\n", i+1, t.URITemplate)
		field(p, "Name", t.Name)
		field(p, "Description", t.Description)
		field(p, "MIME type", t.MIMEType)
	}
}

func field(p *printer, label string, v *string) {
	if v != nil {
		p.printf("      %s: %s\n", label, *v)
	}
}

func summary(p *printer, r *explorer.Report) {
	header(p, summaryTitle)
	p.printf("  Tools:              %d\n", r.Count(explorer.KindTool))
	p.printf("  Resources:          %d\n", r.Count(explorer.KindResource))
	p.printf("  Prompts:            %d\n", r.Count(explorer.KindPrompt))
	p.printf("  Resource Templates: %d\n", r.Count(explorer.KindResourceTemplate))
	p.printf("  Total capabilities: %d\n", r.Total())
}

// ServerInfo prints what the server said about itself, when known.
func ServerInfo(w io.Writer, r *explorer.Report) error {
	info, ok := r.Server()
	if !ok {
		return nil
	}
	p := &printer{w: w}
	name := info.Name
	if info.Title != "" {
		name = fmt.Sprintf("%s (%s)", info.Title, info.Name)
	}
	p.printf("Server: %s %s\n", name, info.Version)
	p.printf("Protocol version: %s\n", info.ProtocolVersion)
	if info.Instructions != "" {
		p.printf("Instructions: %s\n", info.Instructions)
	}
	return p.err
}

// Invocation prints a tool call and its result blocks.
func Invocation(w io.Writer, inv *explorer.Invocation) error {
	p := &printer{w: w}
	header(p, "Calling tool: "+inv.Tool)
	p.printf("  Arguments: %s\n", explorer.MarshalIndent(inv.Arguments))
	p.printf("\n  Result:\n")
	if inv.IsError {
		p.println(toolReportedError)
	}
	for _, b := range inv.Blocks() {
		indent(p, b)
	}
	if len(inv.Content) == 0 && inv.Structured != nil {
		p.println(structuredContentHead)
		indent(p, explorer.MarshalIndent(inv.Structured))
	}
	return p.err
}

func indent(p *printer, s string) {
	for _, line := range strings.Split(s, "\n") {
		p.printf("  %s\n", line)
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ggoodman/mcp-explore/connect"
)

// Transport names accepted in a catalog.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Server is one catalog entry.
type Server struct {
	Transport string            `yaml:"transport"`
	Command   string            `yaml:"command,omitempty"`
	Args      []string          `yaml:"args,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
	Dir       string            `yaml:"dir,omitempty"`
	URL       string            `yaml:"url,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
}

// Catalog is a set of named servers:
//
//	servers:
//	  calculator:
//	    transport: stdio
//	    command: go
//	    args: [run, ./examples/calculator]
//	  remote:
//	    transport: http
//	    url: https://mcp.example.com/mcp
//	    headers:
//	      Authorization: Bearer ${MCP_TOKEN}
//
// Env and header values may reference environment variables.
type Catalog struct {
	Servers map[string]Server `yaml:"servers"`
}

// LoadCatalog reads and validates the catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a catalog. Unknown keys are errors.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every invalid entry.
func (c *Catalog) Validate() error {
	var errs []error
	for _, name := range c.Names() {
		s := c.Servers[name]
		switch s.Transport {
		case TransportStdio:
			if s.Command == "" {
				errs = append(errs, fmt.Errorf("server %q: stdio transport requires a command", name))
			}
		case TransportHTTP:
			if s.URL == "" {
				errs = append(errs, fmt.Errorf("server %q: http transport requires a url", name))
			}
		case "":
			errs = append(errs, fmt.Errorf("server %q: transport is required", name))
		default:
			errs = append(errs, fmt.Errorf("server %q: unknown transport %q", name, s.Transport))
		}
	}
	return errors.Join(errs...)
}

// Names returns the server names in sorted order.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.Servers))
}

// Strategy returns the connection strategy for the named server, with
// environment references in env and header values expanded.
func (c *Catalog) Strategy(name string, log *slog.Logger) (connect.Strategy, error) {
	s, ok := c.Servers[name]
	if !ok {
		return nil, fmt.Errorf("no server named %q in catalog", name)
	}
	switch s.Transport {
	case TransportStdio:
		return &connect.Stdio{
			Command: s.Command,
			Args:    s.Args,
			Env:     expandValues(s.Env),
			Dir:     s.Dir,
			Logger:  log,
		}, nil
	case TransportHTTP:
		return &connect.HTTP{
			URL:     os.ExpandEnv(s.URL),
			Headers: expandValues(s.Headers),
			Logger:  log,
		}, nil
	default:
		return nil, fmt.Errorf("server %q: unknown transport %q", name, s.Transport)
	}
}

func expandValues(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = os.ExpandEnv(v)
	}
	return out
}

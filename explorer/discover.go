package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ggoodman/mcp-explore/mcp"
)

// Lister is the part of a session discovery needs.
type Lister interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
	ListPrompts(ctx context.Context) ([]mcp.Prompt, error)
	ListResourceTemplates(ctx context.Context) ([]mcp.ResourceTemplate, error)
}

// initializeResulter is implemented by sessions that can report the
// handshake outcome.
type initializeResulter interface {
	InitializeResult() mcp.InitializeResult
}

// CategoryError reports that one category could not be listed. Discovery
// carries on without it.
type CategoryError struct {
	Kind Kind
	Err  error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("could not list %s: %v", e.Kind, e.Err)
}

func (e *CategoryError) Unwrap() error { return e.Err }

// Option configures DiscoverAll.
type Option func(*options)

type options struct {
	onError    func(*CategoryError)
	concurrent bool
	log        *slog.Logger
}

// OnCategoryError registers fn to be told about every category that
// failed. Calls are serialized.
func OnCategoryError(fn func(*CategoryError)) Option {
	return func(o *options) { o.onError = fn }
}

// WithConcurrency issues the four queries at once instead of one after
// another.
func WithConcurrency(on bool) Option {
	return func(o *options) { o.concurrent = on }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// DiscoverAll queries l for each category exactly once. A failing query
// leaves its category empty and never affects the others, so DiscoverAll
// always returns a report.
func DiscoverAll(ctx context.Context, l Lister, opts ...Option) *Report {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var mu sync.Mutex
	fail := func(k Kind, err error) {
		ce := &CategoryError{Kind: k, Err: err}
		o.log.WarnContext(ctx, "discover.category.fail", slog.String("kind", string(k)), slog.String("err", err.Error()))
		if o.onError == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		o.onError(ce)
	}

	r := &Report{}
	if ir, ok := l.(initializeResulter); ok {
		r.server = ServerInfoFrom(ir.InitializeResult())
	}

	queries := []func(){
		func() {
			tools, err := l.ListTools(ctx)
			if err != nil {
				fail(KindTool, err)
				return
			}
			for _, t := range tools {
				r.tools = append(r.tools, FromTool(t))
			}
		},
		func() {
			resources, err := l.ListResources(ctx)
			if err != nil {
				fail(KindResource, err)
				return
			}
			for _, res := range resources {
				r.resources = append(r.resources, FromResource(res))
			}
		},
		func() {
			prompts, err := l.ListPrompts(ctx)
			if err != nil {
				fail(KindPrompt, err)
				return
			}
			for _, p := range prompts {
				r.prompts = append(r.prompts, FromPrompt(p))
			}
		},
		func() {
			templates, err := l.ListResourceTemplates(ctx)
			if err != nil {
				fail(KindResourceTemplate, err)
				return
			}
			for _, t := range templates {
				r.templates = append(r.templates, FromResourceTemplate(t))
			}
		},
	}

	if !o.concurrent {
		for _, q := range queries {
			q()
		}
		return r
	}

	// Each query writes only its own category of r.
	var g errgroup.Group
	for _, q := range queries {
		g.Go(func() error {
			q()
			return nil
		})
	}
	_ = g.Wait()
	return r
}

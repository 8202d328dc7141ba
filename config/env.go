// Package config loads the explorer's settings: environment variables
// (optionally seeded from a .env file) and a YAML catalog of named servers.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/ggoodman/mcp-explore/internal/logctx"
)

// Env holds settings read from the environment.
type Env struct {
	LogLevel   string        `env:"MCPX_LOG_LEVEL,default=warn"`
	LogFormat  string        `env:"MCPX_LOG_FORMAT,default=text"`
	Timeout    time.Duration `env:"MCPX_TIMEOUT,default=60s"`
	ClientName string        `env:"MCPX_CLIENT_NAME,default=mcp-explore"`
	// Catalog is the default path of the server catalog.
	Catalog string `env:"MCPX_CONFIG"`
}

// LoadEnv loads the given dotenv files (missing ones are skipped; variables
// already set win) and then decodes Env from the environment. Unset fields
// take the default= value from their tag.
func LoadEnv(dotenv ...string) (*Env, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var e Env
	if err := envdecode.Decode(&e); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &e, nil
}

// Level parses LogLevel.
func (e *Env) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return 0, fmt.Errorf("MCPX_LOG_LEVEL: %w", err)
	}
	return l, nil
}

// NewLogger returns a logger writing to w in LogFormat at LogLevel. Records
// carry the session and RPC attributes found in their context.
func (e *Env) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := e.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(e.LogFormat) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("MCPX_LOG_FORMAT: unknown format %q (want text or json)", e.LogFormat)
	}
	return slog.New(logctx.Wrap(h)), nil
}

package mcptest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/internal/logctx"
)

// ServeStdio reads newline-delimited messages from r and writes one
// response line to w per request. It returns nil when r reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	log := s.log()
	br := bufio.NewReaderSize(r, 1<<20)
	enc := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var msg jsonrpc.AnyMessage
			if uerr := json.Unmarshal(line, &msg); uerr != nil {
				log.WarnContext(ctx, "mcptest.stdio.invalid", slog.String("err", uerr.Error()))
			} else {
				mctx := logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: msg.Method, ID: msg.ID.String(), Type: msg.Type()})
				if resp := s.handle(mctx, &msg); resp != nil {
					// Encode terminates each value with a newline.
					if werr := enc.Encode(resp); werr != nil {
						return fmt.Errorf("write response: %w", werr)
					}
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
	}
}

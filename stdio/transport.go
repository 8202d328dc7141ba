package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/mcpclient"
)

const (
	defaultTerminateTimeout = 5 * time.Second
	// readBufferSize accommodates large single-line responses.
	readBufferSize = 1 << 20
)

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("stdio transport closed")
	// ErrServerClosed is reported to the handler when the server closes its
	// stdout.
	ErrServerClosed = errors.New("server closed its output")
)

var _ mcpclient.Transport = (*Transport)(nil)

// Transport is a newline-delimited JSON-RPC transport over a child
// process's stdio, or over a caller-supplied reader and writer.
type Transport struct {
	command string
	args    []string
	env     []string
	dir     string

	log              *slog.Logger
	terminateTimeout time.Duration

	cmd *exec.Cmd
	r   io.Reader

	wmu sync.Mutex
	w   io.WriteCloser

	started   atomic.Bool
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewCommand returns a transport that spawns command with args on Start.
// The child inherits the current environment plus any WithEnv pairs.
func NewCommand(command string, args []string, opts ...Option) *Transport {
	t := &Transport{
		command:          command,
		args:             args,
		log:              slog.Default(),
		terminateTimeout: defaultTerminateTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewStream returns a transport that reads messages from r and writes them
// to w. Close closes w.
func NewStream(r io.Reader, w io.WriteCloser, opts ...Option) *Transport {
	t := &Transport{
		r:                r,
		w:                w,
		log:              slog.Default(),
		terminateTimeout: defaultTerminateTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// String describes the command line, or "stream" for NewStream transports.
func (t *Transport) String() string {
	if t.command == "" {
		return "stream"
	}
	return strings.Join(append([]string{t.command}, t.args...), " ")
}

// Start spawns the child (for NewCommand) and begins delivering its output
// to h. The child's lifetime is not bound to ctx; only Close ends it.
func (t *Transport) Start(ctx context.Context, h mcpclient.Handler) error {
	if !t.started.CompareAndSwap(false, true) {
		return errors.New("stdio transport already started")
	}

	if t.command != "" {
		if err := t.spawn(ctx); err != nil {
			return err
		}
	}

	go t.readLoop(h)
	return nil
}

func (t *Transport) spawn(ctx context.Context) error {
	cmd := exec.Command(t.command, t.args...)
	cmd.Env = append(os.Environ(), t.env...)
	cmd.Dir = t.dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	// Captured for logging only; it is not part of the protocol.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("start %s: %w", t.command, err)
	}

	t.cmd = cmd
	t.w = stdin
	t.r = stdout

	go t.drainStderr(stderr)

	t.log.DebugContext(ctx, "stdio.spawned", slog.String("command", t.command), slog.Int("pid", cmd.Process.Pid))
	return nil
}

func (t *Transport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		t.log.Debug("stdio.stderr", slog.String("line", scanner.Text()))
	}
}

func (t *Transport) readLoop(h mcpclient.Handler) {
	br := bufio.NewReaderSize(t.r, readBufferSize)
	ctx := context.Background()
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if json.Valid(trimmed) {
				h.HandleMessage(ctx, jsonrpc.Message(trimmed))
			} else {
				t.log.Debug("stdio.skip_non_json", slog.String("line", string(trimmed)))
			}
		}
		if err != nil {
			if t.closing.Load() {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrServerClosed
			}
			t.log.Debug("stdio.read.end", slog.String("err", err.Error()))
			h.HandleClose(err)
			return
		}
	}
}

// Send writes msg followed by a newline. Writes are serialized.
func (t *Transport) Send(ctx context.Context, msg jsonrpc.Message) error {
	if t.closing.Load() {
		return ErrClosed
	}
	if t.w == nil {
		return errors.New("stdio transport not started")
	}

	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if _, err := t.w.Write(buf); err != nil {
		return fmt.Errorf("write to server stdin: %w", err)
	}
	return nil
}

// Close closes the server's input and, for a child process, waits up to
// the terminate timeout for it to exit before killing it.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closing.Store(true)

		t.wmu.Lock()
		if t.w != nil {
			_ = t.w.Close()
		}
		t.wmu.Unlock()

		if t.cmd != nil {
			t.closeErr = t.stop()
		}
	})
	return t.closeErr
}

func (t *Transport) stop() error {
	pid := t.cmd.Process.Pid
	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		t.log.Debug("stdio.exited", slog.Int("pid", pid))
		return err
	case <-time.After(t.terminateTimeout):
		t.log.Warn("stdio.kill", slog.Int("pid", pid), slog.Duration("after", t.terminateTimeout))
		_ = t.cmd.Process.Kill()
		<-done
		return nil
	}
}

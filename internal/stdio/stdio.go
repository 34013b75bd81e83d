// Package stdio serves line-delimited JSON-RPC over a reader and writer pair,
// normally the process's stdin and stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/dispatch"
)

const maxLineBytes = 10 * 1024 * 1024

// Server reads one JSON-RPC message per line and writes one reply per line.
type Server struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	mu sync.Mutex
}

// NewServer creates a stdio server for d.
func NewServer(d *dispatch.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{dispatcher: d, logger: logger}
}

// Serve handles messages from src until it is exhausted or ctx is canceled.
// Messages are handled in order. Replies with no body, such as notification
// acknowledgments in http204 mode, write nothing.
func (s *Server) Serve(ctx context.Context, src io.Reader, dst io.Writer) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			// Scanner reuses its buffer.
			msg := append([]byte(nil), line...)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	s.logger.Info("serving JSON-RPC over stdio", "tools", s.dispatcher.Tools().Names())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("reading stdin: %w", err)
					}
				default:
				}
				return nil
			}
			reply := s.dispatcher.Handle(ctx, line, api.TransportStdio)
			if reply.Body == nil {
				continue
			}
			if err := s.writeLine(dst, reply.Body); err != nil {
				return fmt.Errorf("writing reply: %w", err)
			}
		}
	}
}

func (s *Server) writeLine(w io.Writer, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n"))
	return err
}

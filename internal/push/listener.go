package push

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
)

// Listener accepts push payloads on a unix socket. The bridge process that
// holds the upstream push connection writes one JSON object per line, each
// a flat string map, and the listener feeds them to the receiver.
type Listener struct {
	path     string
	receiver *Receiver
	log      *zap.Logger
	ln       net.Listener
	cancel   context.CancelFunc
}

// NewListener creates a Listener for the given socket path.
func NewListener(path string, r *Receiver, log *zap.Logger) *Listener {
	return &Listener{path: path, receiver: r, log: log}
}

// Start binds the socket and begins accepting connections. A stale socket
// file from a crashed daemon is removed first; the session lock guarantees
// no live owner.
func (l *Listener) Start(ctx context.Context) error {
	_ = os.Remove(l.path)

	ln, err := net.Listen("unix", l.path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", l.path, err)
	}
	l.ln = ln

	ctx, l.cancel = context.WithCancel(ctx)
	go l.acceptLoop(ctx)
	l.log.Info("push ingress listening", zap.String("path", l.path))
	return nil
}

// Stop closes the socket and stops accepting.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.ln != nil {
		_ = l.ln.Close()
		_ = os.Remove(l.path)
	}
}

func (l *Listener) acceptLoop(ctx context.Context) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go l.serve(ctx, conn)
	}
}

func (l *Listener) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var data map[string]string
		if err := json.Unmarshal(line, &data); err != nil {
			l.log.Warn("malformed push payload", zap.Error(err))
			continue
		}
		l.receiver.Deliver(data)
	}
}

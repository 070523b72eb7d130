package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/alerts"
)

// Request is one control command. Front ends (CLI, notification action
// bridge) connect to the control socket and write one JSON request per
// line; each gets one JSON response line back.
type Request struct {
	Op      string `json:"op"`
	Friend  string `json:"friend,omitempty"`
	Message string `json:"message,omitempty"`
	AlertID string `json:"alert_id,omitempty"`
}

// Response answers a control request.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	AlertID string `json:"alert_id,omitempty"`
}

// Control ops.
const (
	OpSend         = "send"
	OpReply        = "reply"
	OpSilence      = "silence"
	OpMarkRead     = "mark_read"
	OpAcceptFriend = "accept_friend"
)

// Control serves user actions on the session control socket.
type Control struct {
	path   string
	engine *alerts.Engine
	log    *zap.Logger
	ln     net.Listener
	cancel context.CancelFunc
}

// NewControl creates a Control server.
func NewControl(path string, engine *alerts.Engine, log *zap.Logger) *Control {
	return &Control{path: path, engine: engine, log: log}
}

// Start binds the control socket. A stale socket file is removed first; the
// session lock guarantees no live owner.
func (c *Control) Start(ctx context.Context) error {
	_ = os.Remove(c.path)

	ln, err := net.Listen("unix", c.path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.path, err)
	}
	c.ln = ln

	ctx, c.cancel = context.WithCancel(ctx)
	go c.acceptLoop(ctx)
	c.log.Info("control socket listening", zap.String("path", c.path))
	return nil
}

// Stop closes the control socket.
func (c *Control) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.ln != nil {
		_ = c.ln.Close()
		_ = os.Remove(c.path)
	}
}

func (c *Control) acceptLoop(ctx context.Context) {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			c.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go c.serve(ctx, conn)
	}
}

func (c *Control) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{Error: "malformed request"})
			continue
		}
		_ = enc.Encode(c.dispatch(ctx, req))
	}
}

func (c *Control) dispatch(ctx context.Context, req Request) Response {
	switch req.Op {
	case OpSend:
		id, err := c.engine.SendAlert(ctx, req.Friend, req.Message)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, AlertID: id}
	case OpReply:
		if err := c.engine.Reply(ctx, req.Friend, req.AlertID, req.Message); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case OpSilence:
		if err := c.engine.Silence(ctx, req.Friend, req.AlertID); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case OpMarkRead:
		if err := c.engine.MarkAsRead(ctx, req.Friend, req.AlertID); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case OpAcceptFriend:
		if err := c.engine.AcceptFriend(ctx, req.Friend); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	default:
		return Response{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

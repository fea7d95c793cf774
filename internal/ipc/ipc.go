package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
)

const (
	CmdChange = "change"
	CmdPing   = "ping"
)

// DefaultSocketPath is where the daemon listens unless configured otherwise.
var DefaultSocketPath = filepath.Join(os.TempDir(), "acg.sock")

type ControlMessage struct {
	Cmd   string `json:"cmd"`
	Path  string `json:"path,omitempty"`
	Text  string `json:"text,omitempty"`
	Voice bool   `json:"voice,omitempty"`
	PID   int    `json:"pid,omitempty"`
}

type Reply struct {
	OK        bool   `json:"ok"`
	RequestID string `json:"request_id,omitempty"`
	Path      string `json:"path,omitempty"`
	PID       int    `json:"pid,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Handler func(ctx context.Context, msg ControlMessage) Reply

type Server struct {
	ln     net.Listener
	path   string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartServer listens on the unix socket at path and serves each connection
// in its own goroutine. A stale socket file from a previous run is replaced.
func StartServer(path string, handler Handler) (*Server, error) {
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{ln: ln, path: path, cancel: cancel}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if err != nil {
				log.Warn("Failed to accept", "err", err)
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				handleConn(ctx, conn, handler)
			}()
		}
	}()

	return s, nil
}

func (s *Server) Addr() string { return s.path }

// Close stops accepting, cancels in-flight handlers and waits for them.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.cancel()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		_ = json.NewEncoder(conn).Encode(Reply{Kind: "invalid_request", Error: err.Error()})
		return
	}

	reply := handler(ctx, msg)
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		log.Warn("Failed to reply", "cmd", msg.Cmd, "err", err)
	}
}

// Send delivers msg to the daemon at path and waits for its reply.
func Send(ctx context.Context, path string, msg ControlMessage) (Reply, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}

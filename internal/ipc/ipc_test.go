package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are length limited, t.TempDir can be too deep
	dir, err := os.MkdirTemp("", "acg")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestSendChange(t *testing.T) {
	path := socketPath(t)

	var got ControlMessage
	srv, err := StartServer(path, func(_ context.Context, msg ControlMessage) Reply {
		got = msg
		return Reply{OK: true, RequestID: "r1", Path: "prog_v1.py", PID: 99}
	})
	require.NoError(t, err)
	defer srv.Close()

	msg := ControlMessage{Cmd: CmdChange, Path: "/tmp/prog.py", Text: "add logging", PID: 12}
	reply, err := Send(context.Background(), path, msg)
	require.NoError(t, err)

	assert.Equal(t, msg, got)
	assert.Equal(t, Reply{OK: true, RequestID: "r1", Path: "prog_v1.py", PID: 99}, reply)
}

func TestSendReportsFailure(t *testing.T) {
	path := socketPath(t)
	srv, err := StartServer(path, func(context.Context, ControlMessage) Reply {
		return Reply{Kind: "service", Error: "generation service error: 500"}
	})
	require.NoError(t, err)
	defer srv.Close()

	reply, err := Send(context.Background(), path, ControlMessage{Cmd: CmdChange, Voice: true})
	require.NoError(t, err)

	assert.False(t, reply.OK)
	assert.Equal(t, "service", reply.Kind)
}

func TestServerRejectsGarbage(t *testing.T) {
	path := socketPath(t)
	srv, err := StartServer(path, func(context.Context, ControlMessage) Reply {
		t.Error("handler must not run")
		return Reply{}
	})
	require.NoError(t, err)
	defer srv.Close()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	buf := make([]byte, 512)
	n, _ := conn.Read(buf)
	assert.Contains(t, string(buf[:n]), "invalid_request")
}

func TestSendWithoutDaemon(t *testing.T) {
	_, err := Send(context.Background(), socketPath(t), ControlMessage{Cmd: CmdPing})
	assert.Error(t, err)
}

func TestSendHonoursContext(t *testing.T) {
	path := socketPath(t)
	release := make(chan struct{})
	srv, err := StartServer(path, func(ctx context.Context, _ ControlMessage) Reply {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return Reply{OK: true}
	})
	require.NoError(t, err)
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = Send(ctx, path, ControlMessage{Cmd: CmdPing})
	assert.Error(t, err)
}

func TestCloseRemovesSocket(t *testing.T) {
	path := socketPath(t)
	srv, err := StartServer(path, func(context.Context, ControlMessage) Reply { return Reply{OK: true} })
	require.NoError(t, err)

	require.NoError(t, srv.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

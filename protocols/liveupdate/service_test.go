package liveupdate

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/horacv/audioengine/engine"
)

// freePort asks the kernel for an unused port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func startTestService(t *testing.T) (*Service, string) {
	t.Helper()
	port := freePort(t)
	svc := New(port, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Close() })
	return svc, fmt.Sprintf("ws://127.0.0.1:%d/live", port)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestClientReceivesLatestOnConnect(t *testing.T) {
	svc, url := startTestService(t)

	svc.Publish(engine.Status{Ready: true, BankRootDirectory: "banks/linux/"})

	conn := dial(t, url)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	require.True(t, snap.Status.Ready)
	require.Equal(t, "banks/linux/", snap.Status.BankRootDirectory)
}

func TestPublishBroadcasts(t *testing.T) {
	svc, url := startTestService(t)

	first := dial(t, url)
	second := dial(t, url)
	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var initial Snapshot
		require.NoError(t, conn.ReadJSON(&initial))
		require.False(t, initial.Status.Ready)
	}

	svc.Publish(engine.Status{Ready: true, Warnings: []string{"configured output driver not found"}})

	for _, conn := range []*websocket.Conn{first, second} {
		var snap Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		require.True(t, snap.Status.Ready)
		require.Len(t, snap.Status.Warnings, 1)
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	svc, url := startTestService(t)

	conn := dial(t, url)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial Snapshot
	require.NoError(t, conn.ReadJSON(&initial))

	require.NoError(t, svc.Close())

	var snap Snapshot
	require.Error(t, conn.ReadJSON(&snap), "reads fail once the service is closed")

	// Publishing after close is a silent no-op.
	svc.Publish(engine.Status{Ready: true})
}

func TestStartFailsOnOccupiedPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	svc := New(l.Addr().(*net.TCPAddr).Port, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, svc.Start())
}

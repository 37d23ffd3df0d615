// Package liveupdate exposes a read-only websocket inspection surface for a
// running audio engine. Debug builds enable it through the EnableLiveUpdate
// and LiveUpdatePort configuration keys; tooling connects and receives
// façade state snapshots as JSON.
package liveupdate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/horacv/audioengine/engine"
)

// Snapshot is one published engine state frame.
type Snapshot struct {
	Time   time.Time     `json:"time"`
	Status engine.Status `json:"status"`
}

type Service struct {
	addr string
	log  *slog.Logger

	srv      *http.Server
	upgrader websocket.Upgrader

	mu     sync.Mutex
	latest Snapshot
	conns  map[*websocket.Conn]struct{}
	closed bool
}

// New builds a service listening on the given live-update port.
func New(port int, log *slog.Logger) *Service {
	return &Service{
		addr:  fmt.Sprintf(":%d", port),
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Inspection tooling connects from anywhere on the local
			// network; there is no origin story for a debug surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start begins serving websocket connections. Non-blocking.
func (s *Service) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", s.handleLive)

	s.srv = &http.Server{Addr: s.addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Give an occupied port a moment to surface instead of failing on the
	// first Publish.
	select {
	case err := <-errChan:
		return fmt.Errorf("liveupdate: listen on %s: %w", s.addr, err)
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Publish stores the snapshot and pushes it to every connected client.
// Called from the engine's owner goroutine once per update tick.
func (s *Service) Publish(status engine.Status) {
	snap := Snapshot{Time: time.Now(), Status: status}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = snap

	for conn := range s.conns {
		if err := conn.WriteJSON(snap); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

func (s *Service) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("liveupdate upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	latest := s.latest
	err = conn.WriteJSON(latest)
	s.mu.Unlock()

	if err != nil {
		s.drop(conn)
		return
	}

	// Read pump: clients send nothing meaningful; reading only detects
	// disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Service) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn.Close()
	delete(s.conns, conn)
}

// Close disconnects all clients and stops the listener.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal/database"
	"github.com/scythe504/pp-backend/internal/game"
)

type Server struct {
	port  int
	rooms *game.Rooms
	// db is nil when the journal is disabled.
	db database.Service

	httpServer *http.Server
}

func NewServer(port int, rooms *game.Rooms, db database.Service) *Server {
	s := &Server{
		port:  port,
		rooms: rooms,
		db:    db,
	}

	// Declare Server config
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	klog.Infof("[Server] Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight HTTP
// requests. Hijacked websocket connections are not tracked by net/http and
// are closed by the caller through the room registry.
func (s *Server) Shutdown(ctx context.Context) error {
	klog.Info("[Server] Shutting down")
	return s.httpServer.Shutdown(ctx)
}

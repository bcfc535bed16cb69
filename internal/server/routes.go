package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
	"github.com/scythe504/pp-backend/internal/game"
	"github.com/scythe504/pp-backend/internal/utils"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HelloWorldHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/release-info", s.ReleaseInfoHandler).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/rooms", s.GetRoomsHandler).Methods(http.MethodGet, http.MethodOptions)
	// Must be registered before the room route, "new" is a valid room id.
	r.HandleFunc("/rooms/new", s.NewRoomHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms/{roomId}", game.HandleWebSocket(s.rooms))

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false") // Credentials not allowed with wildcard origins

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "up", "journal": "disabled"})
		return
	}
	stats := s.db.Health(r.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, stats)
}

// GetRoomsHandler lists every room as seen by a client that isn't in it.
func (s *Server) GetRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := s.rooms.GetRooms()
	dtos := make([]internal.RoomDto, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, internal.NewRoomDto(room, nil))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// NewRoomHandler redirects to the websocket URL of a randomly named room.
func (s *Server) NewRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := utils.RandomRoomName()
	location := url.URL{
		Scheme: websocketScheme(r),
		Host:   r.Host,
		Path:   "/rooms/" + roomID,
	}
	klog.Infof("[NewRoomHandler] Redirecting to new room %s", roomID)
	http.Redirect(w, r, location.String(), http.StatusTemporaryRedirect)
}

// websocketScheme picks wss unless the request is plainly local. Behind a
// proxy the request itself usually looks like plain http.
func websocketScheme(r *http.Request) string {
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "wss"
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "ws"
	}
	return "wss"
}

type ReleaseInfo struct {
	Version string `json:"version"`
	GitHash string `json:"gitHash"`
}

func (s *Server) ReleaseInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, readReleaseInfo())
}

func readReleaseInfo() ReleaseInfo {
	info := ReleaseInfo{Version: "(devel)"}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if build.Main.Version != "" {
		info.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		if setting.Key == "vcs.revision" {
			info.GitHash = setting.Value
		}
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.Errorf("Error encoding response: %v", err)
	}
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/duo/internal/hub"
)

// NewRouter wires the websocket endpoint and the health checks.
func NewRouter(h *hub.Hub, origins *OriginPolicy, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	upgrader := &websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin: func(r *http.Request) bool {
			return origins.Allows(r.Header.Get("Origin"))
		},
	}

	mux := http.NewServeMux()
	mux.Handle("GET /ws", ServeWs(h, upgrader, logger))
	mux.Handle("GET /{$}", origins.CORS(http.HandlerFunc(statusHandler)))
	mux.Handle("GET /health", origins.CORS(healthHandler(h)))
	mux.Handle("OPTIONS /", origins.CORS(http.NotFoundHandler()))
	return mux
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(h *hub.Hub, upgrader *websocket.Upgrader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade writes its own error response.
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		client := hub.NewClient(h, conn)
		if !client.Serve() {
			logger.Warn("hub stopped, refusing connection", "remote", r.RemoteAddr)
		}
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       *int   `json:"rooms,omitempty"`
	Connections *int   `json:"connections,omitempty"`
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{Status: "ok"})
}

func healthHandler(h *hub.Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := h.Stats()
		writeJSON(w, healthResponse{
			Status:      "ok",
			Rooms:       &stats.Rooms,
			Connections: &stats.Connections,
		})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

package relay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The relay is a development tool; cross-origin checks stay off.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server bundles a hub with its HTTP surface.
type Server struct {
	hub *Hub
}

// NewServer creates a server and starts the hub loop.
func NewServer() *Server {
	s := &Server{hub: NewHub()}
	go s.hub.Run()
	return s
}

// Handler returns the HTTP mux: the websocket endpoint at /ws and a
// health probe at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe runs the relay on the given address until the listener
// fails.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("relay listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

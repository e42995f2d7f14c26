// Package web is the read-only monitor surface: link status, client
// list, recent chat, Prometheus metrics and a live WebSocket stream.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
)

// Server exposes the monitor HTTP endpoints.
type Server struct {
	addr      string
	status    ports.StatusProvider
	store     ports.SessionStore
	WSManager *WSManager
	httpSrv   *http.Server
}

// NewServer wires the router. store may be nil when persistence is
// disabled.
func NewServer(addr string, status ports.StatusProvider, store ports.SessionStore) *Server {
	s := &Server{
		addr:      addr,
		status:    status,
		store:     store,
		WSManager: NewWSManager(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/clients", s.handleClients).Methods(http.MethodGet)
	r.HandleFunc("/api/messages", s.handleMessages).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(r, "dshost-web"),
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status.Status())
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()
	clients := st.Clients
	if clients == nil {
		clients = []ports.ClientInfo{}
	}
	writeJSON(w, clients)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, []ports.StoredMessage{})
		return
	}
	msgs, err := s.store.RecentMessages(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []ports.StoredMessage{}
	}
	writeJSON(w, msgs)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

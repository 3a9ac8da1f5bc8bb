package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ludo-arena/internal/errors"
	"github.com/louisbranch/ludo-arena/internal/services/arena/storage"
	"github.com/louisbranch/ludo-arena/internal/services/arena/storage/sqlite"
)

const serverShutdownTimeout = 5 * time.Second

// Config holds the arena service configuration.
type Config struct {
	// Addr is the HTTP/websocket listen address.
	Addr string
	// OpsAddr is the gRPC health listen address. Empty disables it.
	OpsAddr string
	// StoragePath is the SQLite match archive path. Empty disables archiving.
	StoragePath string
}

// Run hosts the arena until ctx is canceled.
func Run(ctx context.Context, cfg Config) error {
	var store storage.MatchStore
	if cfg.StoragePath != "" {
		sqliteStore, err := sqlite.Open(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("open match archive: %w", err)
		}
		defer func() { _ = sqliteStore.Close() }()
		store = sqliteStore
	}

	manager := NewManager(ctx, store)
	server := &Server{manager: manager}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Routes(),
	}

	errs := make(chan error, 2)
	go func() {
		log.Printf("arena listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	if cfg.OpsAddr != "" {
		go func() {
			if err := runHealthServer(ctx, cfg.OpsAddr); err != nil {
				errs <- err
			}
		}()
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// Server exposes match hosting over HTTP. It carries no game logic: every
// payload it forwards is defined by the protocol package.
type Server struct {
	manager *Manager
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /matches", s.handleCreateMatch)
	mux.HandleFunc("GET /matches/{id}/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /matches/{id}/ws", s.handleSocket)
	return mux
}

type createMatchRequest struct {
	PlayerCount int `json:"playerCount"`
}

type createMatchResponse struct {
	MatchID  string          `json:"matchId"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	match, err := s.manager.Create(r.Context(), req.PlayerCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := match.SnapshotJSON(r.Context())
	if err != nil {
		http.Error(w, "match unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createMatchResponse{MatchID: match.ID, Snapshot: snapshot}); err != nil {
		log.Printf("write create match response: %v", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	match, err := s.manager.Resume(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	snapshot, err := match.SnapshotJSON(r.Context())
	if err != nil {
		http.Error(w, "match unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(snapshot); err != nil {
		log.Printf("write snapshot response: %v", err)
	}
}

func statusForError(err error) int {
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Package httpapi exposes a decaying key/value store over HTTP. Values are
// opaque bytes; every key expires once it outlives the store's lifespan
// unless it is written again.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"decaying/internal/decay"
)

// maxValueBytes caps a single request body.
const maxValueBytes = 1 << 20

// Server wraps handlers for a decaying store.
type Server struct {
	store  *decay.Map[string, []byte]
	router *mux.Router
	log    *slog.Logger
}

// NewServer creates a Server backed by store. The caller keeps ownership of
// store and closes it.
func NewServer(store *decay.Map[string, []byte]) *Server {
	s := &Server{
		store:  store,
		router: mux.NewRouter(),
		log:    slog.Default().With("component", "httpapi"),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler to be used by http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Handle mounts an extra handler, e.g. /metrics.
func (s *Server) Handle(path string, h http.Handler) {
	s.router.Handle(path, h)
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/keys", s.handleList()).Methods(http.MethodGet)
	api.HandleFunc("/keys/{key}", s.handlePut()).Methods(http.MethodPut)
	api.HandleFunc("/keys/{key}", s.handlePost()).Methods(http.MethodPost)
	api.HandleFunc("/keys/{key}", s.handleGet()).Methods(http.MethodGet)
	api.HandleFunc("/keys/{key}", s.handleDelete()).Methods(http.MethodDelete)

	// health
	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
}

// handlePut writes the key and restarts its lifetime.
func (s *Server) handlePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		if err := s.store.Set(key, body); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePost creates the key; an existing key is a conflict.
func (s *Server) handlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		if err := s.store.Add(key, body); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) handleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.store.Get(mux.Vars(r)["key"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(v)
	}
}

func (s *Server) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.store.Remove(mux.Vars(r)["key"]) {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type listResponse struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

func (s *Server) handleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := s.store.Keys()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(listResponse{Keys: keys, Count: len(keys)}); err != nil {
			s.log.Warn("failed to encode key list", "error", err)
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, decay.ErrKeyNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, decay.ErrDuplicateKey):
		http.Error(w, "key already exists", http.StatusConflict)
	case errors.Is(err, decay.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("store operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// readBody reads at most maxValueBytes of the request body and writes the
// error response itself when it fails.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "value too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "read body failed", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}


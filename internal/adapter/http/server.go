package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchURLs = 100
)

// BatchRunner processes a batch of mod URLs.
type BatchRunner interface {
	RunBatch(ctx context.Context, urls []string) []domain.Result
}

// Server is the HTTP adapter for the analysis service.
type Server struct {
	batch   BatchRunner
	history *domain.LookupService
	mux     *http.ServeMux
	server  *http.Server
	log     *logx.Logger
}

// NewServer creates a new HTTP server. history may be nil, in which case
// lookup endpoints answer 404.
func NewServer(batch BatchRunner, history *domain.LookupService, addr string, log *logx.Logger) *Server {
	s := &Server{
		batch:   batch,
		history: history,
		mux:     http.NewServeMux(),
		log:     log,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /lookups/{id}", s.handleGetLookup)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// analyzeRequest is the request body for POST /analyze.
type analyzeRequest struct {
	URLs []string `json:"urls"`
}

// modResponse is one entry of the /analyze response. Either Error or the
// mod fields are set.
type modResponse struct {
	URL      string               `json:"url"`
	Name     string               `json:"name,omitempty"`
	Provider string               `json:"provider,omitempty"`
	ModID    string               `json:"mod_id,omitempty"`
	Versions []domain.VersionPair `json:"versions"`
	Error    string               `json:"error,omitempty"`
}

// lookupResponse is the JSON response for lookup endpoints.
type lookupResponse struct {
	ID        int64                `json:"id"`
	URL       string               `json:"url"`
	Status    string               `json:"status"`
	Provider  string               `json:"provider,omitempty"`
	ModID     string               `json:"mod_id,omitempty"`
	Name      string               `json:"name,omitempty"`
	Versions  []domain.VersionPair `json:"versions"`
	Error     string               `json:"error,omitempty"`
	CreatedAt string               `json:"created_at"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Blank entries are kept so every input gets a row back.
	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		urls = append(urls, strings.TrimSpace(u))
	}
	if len(urls) == 0 {
		s.writeError(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(urls) > maxBatchURLs {
		s.writeError(w, http.StatusBadRequest, "too many urls (max "+strconv.Itoa(maxBatchURLs)+")")
		return
	}

	s.log.Printf("analyze: %d url(s)", len(urls))
	results := s.batch.RunBatch(r.Context(), urls)

	out := make([]modResponse, 0, len(results))
	for _, res := range results {
		out = append(out, resultToResponse(res))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lookup ID")
		return
	}
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "lookup not found")
		return
	}

	l, err := s.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLookupNotFound) {
			s.writeError(w, http.StatusNotFound, "lookup not found")
			return
		}
		s.log.Printf("get lookup error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, lookupToResponse(l))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func resultToResponse(r domain.Result) modResponse {
	if !r.OK() {
		msg := "no result"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return modResponse{URL: r.URL, Versions: []domain.VersionPair{}, Error: msg}
	}
	return modResponse{
		URL:      r.URL,
		Name:     r.Info.Name,
		Provider: string(r.Info.Provider),
		ModID:    r.Info.ModID,
		Versions: r.Info.Pairs.Sorted(),
	}
}

func lookupToResponse(l *domain.Lookup) lookupResponse {
	versions := l.Pairs
	if versions == nil {
		versions = []domain.VersionPair{}
	}
	return lookupResponse{
		ID:        l.ID,
		URL:       l.URL,
		Status:    string(l.Status),
		Provider:  string(l.Provider),
		ModID:     l.ModID,
		Name:      l.Name,
		Versions:  versions,
		Error:     l.Error,
		CreatedAt: l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Port extracts the port from the address.
func (s *Server) Port() int {
	addr := s.server.Addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		port, _ := strconv.Atoi(addr[idx+1:])
		return port
	}
	return 0
}

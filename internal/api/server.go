// Package api is the thin HTTP layer over the record store and the
// analysis service. Its only job is mapping results and error kinds onto
// status codes: validation failures are 400, absence is 404, and the AI
// operations always answer 200 because the pipeline degrades to mock
// output instead of failing.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/error-T-T/mathmistake/internal/analysis"
	"github.com/error-T-T/mathmistake/internal/mistake"
	"github.com/error-T-T/mathmistake/internal/ollama"
	"github.com/error-T-T/mathmistake/internal/store"
)

type Server struct {
	router http.Handler
	store  *store.Store
	svc    *analysis.Service
	gen    *ollama.Client
	port   int
	log    *slog.Logger
}

func NewServer(port int, st *store.Store, svc *analysis.Service, gen *ollama.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: st, svc: svc, gen: gen, port: port, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/mistakes", func(r chi.Router) {
			r.Post("/", s.createMistake)
			r.Get("/", s.listMistakes)
			r.Get("/{id}", s.getMistake)
			r.Put("/{id}", s.updateMistake)
			r.Delete("/{id}", s.deleteMistake)
		})
		r.Get("/statistics", s.statistics)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/analyze", s.analyzeAdHoc)
			r.Post("/analyze/{id}", s.analyzeByID)
			r.Post("/generate-practice", s.generatePractice)
			r.Post("/explain-steps", s.explainSteps)
			r.Get("/explain/{concept}", s.explainConcept)
			r.Get("/health", s.aiHealth)
		})
	})

	// The bundled frontend is served from another origin during
	// development.
	s.router = cors.AllowAll().Handler(r)
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) aiHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gen.Health())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeFailure maps an internal error onto a status code: validation
// failures are the caller's fault, everything else is ours.
func writeFailure(w http.ResponseWriter, err error) {
	var verr *mistake.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

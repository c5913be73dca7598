package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/error-T-T/mathmistake/internal/mistake"
	"github.com/error-T-T/mathmistake/internal/store"
)

func (s *Server) createMistake(w http.ResponseWriter, r *http.Request) {
	var c mistake.Create
	if !decodeBody(w, r, &c) {
		return
	}
	rec, err := s.store.Create(c)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getMistake(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listMistakes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{
		Keyword:      q.Get("keyword"),
		Difficulty:   mistake.Difficulty(q.Get("difficulty")),
		QuestionType: mistake.QuestionType(q.Get("question_type")),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}
	recs, err := s.store.List(f)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) updateMistake(w http.ResponseWriter, r *http.Request) {
	var u mistake.Update
	if !decodeBody(w, r, &u) {
		return
	}
	ok, err := s.store.Update(chi.URLParam(r, "id"), u)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) deleteMistake(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.Delete(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

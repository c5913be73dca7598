package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/error-T-T/mathmistake/internal/analysis"
	"github.com/error-T-T/mathmistake/internal/mistake"
)

func (s *Server) analyzeByID(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.AnalyzeRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) analyzeAdHoc(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) generatePractice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KnowledgeGaps   []string           `json:"knowledge_gaps"`
		Count           int                `json:"count"`
		Difficulty      mistake.Difficulty `json:"difficulty"`
		SimilarityLevel string             `json:"similarity_level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	questions, err := s.svc.GeneratePractice(r.Context(), req.KnowledgeGaps, req.Count, req.Difficulty, req.SimilarityLevel)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"knowledge_gaps": req.KnowledgeGaps,
		"count":          len(questions),
		"questions":      questions,
	})
}

func (s *Server) explainConcept(w http.ResponseWriter, r *http.Request) {
	concept := chi.URLParam(r, "concept")
	e, err := s.svc.ExplainConcept(r.Context(), concept)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) explainSteps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionContent string `json:"question_content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.QuestionContent == "" {
		writeError(w, http.StatusBadRequest, `invalid field "question_content": required`)
		return
	}
	text, err := s.svc.ExplainSteps(r.Context(), req.QuestionContent)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

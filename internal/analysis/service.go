// Package analysis orchestrates the mistake-analysis pipeline: render a
// prompt, call the generation service, extract and validate the JSON
// payload, and fall back to deterministic synthetic output whenever the
// service is unavailable or its output is unusable.
//
// Availability wins over strict correctness here: apart from a template
// rendering bug (a programming error), no failure inside the pipeline
// propagates to the caller.
package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"github.com/error-T-T/mathmistake/internal/extract"
	"github.com/error-T-T/mathmistake/internal/mistake"
	"github.com/error-T-T/mathmistake/internal/prompt"
	"github.com/error-T-T/mathmistake/internal/store"
)

// Confidence bounds enforced by clamping; the model's stated score is
// untrusted.
const (
	minConfidence     = 0.7
	maxConfidence     = 0.95
	defaultConfidence = 0.8
)

// Generator is the slice of the generation client the service needs.
type Generator interface {
	Chat(ctx context.Context, system, user string, jsonMode bool) (string, bool)
}

// Service runs analysis, practice generation, and concept explanation.
type Service struct {
	store *store.Store
	gen   Generator
	log   *slog.Logger
}

// NewService wires the orchestrator to a record store and a generator.
func NewService(st *store.Store, gen Generator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, gen: gen, log: log}
}

// Request carries the fields of one mistake for an analysis run. MistakeID
// may be empty for ad-hoc analysis with no stored record.
type Request struct {
	MistakeID       string `json:"mistake_id"`
	QuestionContent string `json:"question_content"`
	WrongProcess    string `json:"wrong_process"`
	WrongAnswer     string `json:"wrong_answer"`
	CorrectAnswer   string `json:"correct_answer"`
}

const analysisSystemPrompt = `You are a professional math education assistant specializing in analyzing student math mistakes.
Generate a detailed analysis report for the provided mistake, strictly following the JSON format requested by the user.
Ensure confidence_score is between 0.7 and 0.95.`

// AnalyzeRecord loads the record with the given id, analyzes it, and
// persists the result onto the record. A nil record (with nil error) means
// the id is unknown.
//
// A failed persist — the record was deleted concurrently, or the rewrite
// failed — is logged but does not discard the computed analysis.
func (s *Service) AnalyzeRecord(ctx context.Context, id string) (*mistake.Analysis, error) {
	rec, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	a, err := s.Analyze(ctx, Request{
		MistakeID:       rec.ID,
		QuestionContent: rec.QuestionContent,
		WrongProcess:    rec.WrongProcess,
		WrongAnswer:     rec.WrongAnswer,
		CorrectAnswer:   rec.CorrectAnswer,
	})
	if err != nil {
		return nil, err
	}

	ok, perr := s.store.SetAnalysis(id, *a)
	if perr != nil {
		s.log.Warn("analysis computed but not persisted", "id", id, "error", perr)
	} else if !ok {
		s.log.Warn("analysis computed but record vanished", "id", id)
	}
	return a, nil
}

// Analyze runs one analysis without touching the store. It always produces
// a complete Analysis; the only error it can return is a template rendering
// failure, which indicates a bug at the call site.
func (s *Service) Analyze(ctx context.Context, req Request) (*mistake.Analysis, error) {
	userMsg, err := prompt.Render(prompt.MistakeAnalysis, map[string]any{
		"question_content": req.QuestionContent,
		"wrong_process":    req.WrongProcess,
		"wrong_answer":     req.WrongAnswer,
		"correct_answer":   req.CorrectAnswer,
	})
	if err != nil {
		return nil, err
	}

	content, ok := s.gen.Chat(ctx, analysisSystemPrompt, userMsg, true)
	if !ok {
		return s.mockAnalysis(req.MistakeID), nil
	}

	raw, err := extract.JSON(content)
	if err != nil {
		s.log.Warn("analysis extraction failed, using fallback", "error", err)
		return s.mockAnalysis(req.MistakeID), nil
	}
	if err := validatePayload(analysisSchema, raw); err != nil {
		s.log.Warn("analysis payload rejected, using fallback", "error", err)
		return s.mockAnalysis(req.MistakeID), nil
	}

	var payload struct {
		ErrorType           string   `json:"error_type"`
		RootCause           string   `json:"root_cause"`
		KnowledgeGap        []string `json:"knowledge_gap"`
		LearningSuggestions []string `json:"learning_suggestions"`
		SimilarExamples     []string `json:"similar_examples"`
		ConfidenceScore     *float64 `json:"confidence_score"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn("analysis payload unmarshal failed, using fallback", "error", err)
		return s.mockAnalysis(req.MistakeID), nil
	}

	return &mistake.Analysis{
		MistakeID:           req.MistakeID,
		ErrorType:           orDefault(payload.ErrorType, "Unknown Error Type"),
		RootCause:           orDefault(payload.RootCause, "Unknown Root Cause"),
		KnowledgeGap:        orEmpty(payload.KnowledgeGap),
		LearningSuggestions: orEmpty(payload.LearningSuggestions),
		SimilarExamples:     orEmpty(payload.SimilarExamples),
		ConfidenceScore:     clampConfidence(payload.ConfidenceScore),
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// clampConfidence forces the score into [0.7, 0.95], defaulting when the
// model omitted it.
func clampConfidence(v *float64) float64 {
	if v == nil {
		return defaultConfidence
	}
	return math.Min(math.Max(*v, minConfidence), maxConfidence)
}

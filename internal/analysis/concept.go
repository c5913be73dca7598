package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/error-T-T/mathmistake/internal/extract"
	"github.com/error-T-T/mathmistake/internal/mistake"
	"github.com/error-T-T/mathmistake/internal/prompt"
)

const conceptSystemPrompt = `You are a professional math teacher. Explain math concepts clearly and concisely, returning only the JSON requested by the user.`

const explanationSystemPrompt = `You are a professional math teacher. Walk through the solution step by step in plain text.`

// ExplainConcept produces a structured explanation of the named concept,
// from the generation service when available, else from the built-in
// concept bank.
func (s *Service) ExplainConcept(ctx context.Context, concept string) (*mistake.ConceptExplanation, error) {
	userMsg, err := prompt.Render(prompt.ConceptExplanation, map[string]any{
		"concept": concept,
	})
	if err != nil {
		return nil, err
	}

	content, ok := s.gen.Chat(ctx, conceptSystemPrompt, userMsg, true)
	if !ok {
		return mockConcept(concept), nil
	}

	raw, err := extract.JSON(content)
	if err != nil {
		s.log.Warn("concept extraction failed, using fallback", "concept", concept, "error", err)
		return mockConcept(concept), nil
	}
	if err := validatePayload(conceptSchema, raw); err != nil {
		s.log.Warn("concept payload rejected, using fallback", "concept", concept, "error", err)
		return mockConcept(concept), nil
	}

	var payload struct {
		Definition string   `json:"definition"`
		Formula    string   `json:"formula"`
		KeyPoints  []string `json:"key_points"`
		Example    string   `json:"example"`
		Note       string   `json:"note"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn("concept payload unmarshal failed, using fallback", "concept", concept, "error", err)
		return mockConcept(concept), nil
	}

	return &mistake.ConceptExplanation{
		Concept:    concept,
		Definition: orDefault(payload.Definition, fmt.Sprintf("%s is an important math concept", concept)),
		Formula:    payload.Formula,
		KeyPoints:  orEmpty(payload.KeyPoints),
		Example:    payload.Example,
		Note:       payload.Note,
	}, nil
}

// ExplainSteps produces a free-text step-by-step walkthrough for a
// question. The output is prose, not JSON, so there is nothing to extract;
// an unavailable service yields a fixed placeholder.
func (s *Service) ExplainSteps(ctx context.Context, questionContent string) (string, error) {
	userMsg, err := prompt.Render(prompt.ExplanationGeneration, map[string]any{
		"question_content": questionContent,
	})
	if err != nil {
		return "", err
	}

	content, ok := s.gen.Chat(ctx, explanationSystemPrompt, userMsg, false)
	if !ok {
		return "Step-by-step explanation is unavailable while the generation service is offline.", nil
	}
	return content, nil
}

// conceptBank holds canned explanations for common concepts.
var conceptBank = map[string]mistake.ConceptExplanation{
	"Definite Integral": {
		Definition: "The definite integral of a function over an interval represents the signed area under its curve",
		Formula:    "integral[a,b] f(x) dx = F(b) - F(a)",
		KeyPoints:  []string{"Fundamental Theorem of Calculus", "Riemann Sum", "Area Calculation"},
		Example:    "integral(0 to 1) x^2 dx = 1/3",
	},
	"Derivative": {
		Definition: "The derivative describes the rate of change of a function at a point",
		Formula:    "f'(x) = lim(h->0) [f(x+h)-f(x)]/h",
		KeyPoints:  []string{"Tangent Slope", "Extremum", "Monotonicity"},
		Example:    "f(x)=x^2, f'(x)=2x",
	},
	"Limit": {
		Definition: "A limit describes the behavior of a function as its argument approaches a value",
		Formula:    "lim(x->a) f(x) = L",
		KeyPoints:  []string{"Continuity", "Infinitesimals", "Standard Limits"},
		Example:    "lim(x->0) sin(x)/x = 1",
	},
	"Differential Equation": {
		Definition: "A differential equation relates an unknown function to its derivatives",
		Formula:    "F(x, y, y', ..., y^(n)) = 0",
		KeyPoints:  []string{"Order", "Linear vs Nonlinear", "Initial Value Problems"},
		Example:    "dy/dx = 2x, solution: y = x^2 + C",
	},
	"Matrix": {
		Definition: "A matrix is a rectangular array of numbers",
		Formula:    "A = [a_ij] with m rows and n columns",
		KeyPoints:  []string{"Determinant", "Inverse", "Eigenvalues"},
		Example:    "[[1,2],[3,4]] is a 2x2 matrix",
	},
}

func mockConcept(concept string) *mistake.ConceptExplanation {
	if e, ok := conceptBank[concept]; ok {
		e.Concept = concept
		e.Note = "generated without the AI service"
		return &e
	}
	return &mistake.ConceptExplanation{
		Concept:    concept,
		Definition: fmt.Sprintf("%s is an important math concept", concept),
		Formula:    "no standard formula available",
		KeyPoints:  []string{"Basic Definition", "Properties", "Applications"},
		Example:    "example missing",
		Note:       "generated without the AI service",
	}
}

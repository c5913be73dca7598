package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/error-T-T/mathmistake/internal/extract"
	"github.com/error-T-T/mathmistake/internal/mistake"
	"github.com/error-T-T/mathmistake/internal/prompt"
)

const (
	defaultPracticeCount = 5
	maxPracticeCount     = 20
	defaultSimilarity    = "medium"
)

const generationSystemPrompt = `You are a math tutor creating practice problems for university students.
Return only the JSON list requested by the user. Every question must be solvable and its answer correct.`

// GeneratePractice produces practice questions targeting the given
// knowledge gaps. Count is clamped to [1, 20] with a default of 5. When the
// generation service has no answer, a fixed base-question list is cycled
// and decorated with the caller's parameters.
func (s *Service) GeneratePractice(ctx context.Context, gaps []string, count int, difficulty mistake.Difficulty, similarity string) ([]mistake.GeneratedQuestion, error) {
	if count <= 0 {
		count = defaultPracticeCount
	}
	if count > maxPracticeCount {
		count = maxPracticeCount
	}
	if similarity == "" {
		similarity = defaultSimilarity
	}
	diffLabel := string(difficulty)
	if diffLabel == "" {
		diffLabel = string(mistake.DefaultDifficulty)
	}

	// The template is phrased around an original question; for gap-driven
	// generation the joined gaps stand in as the subject matter.
	subject := strings.Join(gaps, ", ")
	if subject == "" {
		subject = "basic math"
	}

	userMsg, err := prompt.Render(prompt.SimilarQuestionGeneration, map[string]any{
		"count":            count,
		"question_content": subject,
		"knowledge_tags":   subject,
		"difficulty":       diffLabel,
		"similarity_level": similarity,
	})
	if err != nil {
		return nil, err
	}

	content, ok := s.gen.Chat(ctx, generationSystemPrompt, userMsg, true)
	if !ok {
		return s.mockPractice(gaps, count, difficulty, similarity), nil
	}

	raw, err := extract.JSON(content)
	if err != nil {
		s.log.Warn("practice extraction failed, using fallback", "error", err)
		return s.mockPractice(gaps, count, difficulty, similarity), nil
	}
	if err := validatePayload(questionListSchema, raw); err != nil {
		s.log.Warn("practice payload rejected, using fallback", "error", err)
		return s.mockPractice(gaps, count, difficulty, similarity), nil
	}

	var payload []struct {
		QuestionContent string   `json:"question_content"`
		Options         []string `json:"options"`
		CorrectAnswer   string   `json:"correct_answer"`
		Explanation     string   `json:"explanation"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn("practice payload unmarshal failed, using fallback", "error", err)
		return s.mockPractice(gaps, count, difficulty, similarity), nil
	}
	if len(payload) == 0 {
		return s.mockPractice(gaps, count, difficulty, similarity), nil
	}
	if len(payload) > count {
		payload = payload[:count]
	}

	questions := make([]mistake.GeneratedQuestion, 0, len(payload))
	for i, p := range payload {
		questions = append(questions, mistake.GeneratedQuestion{
			ID:              practiceID(i),
			QuestionContent: p.QuestionContent,
			Options:         p.Options,
			CorrectAnswer:   p.CorrectAnswer,
			Explanation:     p.Explanation,
			Difficulty:      practiceDifficulty(difficulty),
			KnowledgeTags:   practiceTags(gaps),
			SimilarityLevel: similarity,
		})
	}
	return questions, nil
}

// practiceID numbers questions within one call. The counter resets per
// call; ids are not unique across calls.
func practiceID(i int) string {
	return fmt.Sprintf("PQ%03d", i+1)
}

func practiceTags(gaps []string) []string {
	if len(gaps) == 0 {
		return []string{"Basic Math"}
	}
	if len(gaps) > 2 {
		gaps = gaps[:2]
	}
	return gaps
}

func practiceDifficulty(d mistake.Difficulty) mistake.Difficulty {
	if d != "" {
		return d
	}
	pool := []mistake.Difficulty{mistake.DifficultyEasy, mistake.DifficultyMedium, mistake.DifficultyHard}
	return pool[rand.Intn(len(pool))]
}

type baseQuestion struct {
	question    string
	answer      string
	explanation string
}

var baseQuestions = []baseQuestion{
	{
		question:    "Calculate integral(0 to 1) x^3 dx",
		answer:      "1/4",
		explanation: "Use the power rule for integration",
	},
	{
		question:    "Find the derivative of f(x) = 2x^2 - 3x + 1",
		answer:      "f'(x) = 4x - 3",
		explanation: "Use the power rule for differentiation",
	},
	{
		question:    "Calculate the limit lim(x->0) (e^x - 1)/x",
		answer:      "1",
		explanation: "Use L'Hopital's rule or the standard limit",
	},
	{
		question:    "Solve the differential equation dy/dx = 2y",
		answer:      "y = Ce^(2x)",
		explanation: "Use separation of variables",
	},
	{
		question:    "Calculate the matrix sum [[1,2],[3,4]] + [[5,6],[7,8]]",
		answer:      "[[6,8],[10,12]]",
		explanation: "Matrix addition adds corresponding elements",
	},
}

// similarityDescriptors decorate fallback questions per similarity level.
var similarityDescriptors = map[string][]string{
	"low":    {"different form", "different background", "different parameters"},
	"medium": {"similar type", "similar method", "different conditions"},
	"high":   {"highly similar", "same structure", "different values"},
}

// mockPractice cycles the base-question list and decorates it with the
// caller's knowledge gaps, difficulty, and similarity level.
func (s *Service) mockPractice(gaps []string, count int, difficulty mistake.Difficulty, similarity string) []mistake.GeneratedQuestion {
	descs, ok := similarityDescriptors[similarity]
	if !ok {
		descs = []string{"similar"}
	}

	questions := make([]mistake.GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		base := baseQuestions[i%len(baseQuestions)]
		questions = append(questions, mistake.GeneratedQuestion{
			ID:              practiceID(i),
			QuestionContent: fmt.Sprintf("%s (%s question)", base.question, descs[i%len(descs)]),
			CorrectAnswer:   base.answer,
			Explanation:     fmt.Sprintf("%s; this is a %s similarity question", base.explanation, similarity),
			Difficulty:      practiceDifficulty(difficulty),
			KnowledgeTags:   practiceTags(gaps),
			SimilarityLevel: similarity,
		})
	}
	return questions
}

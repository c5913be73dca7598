package analysis

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/error-T-T/mathmistake/internal/mistake"
	"github.com/error-T-T/mathmistake/internal/store"
)

// chatFunc adapts a function to the Generator interface.
type chatFunc func(ctx context.Context, system, user string, jsonMode bool) (string, bool)

func (f chatFunc) Chat(ctx context.Context, system, user string, jsonMode bool) (string, bool) {
	return f(ctx, system, user, jsonMode)
}

// offline is a generator that never answers.
var offline = chatFunc(func(context.Context, string, string, bool) (string, bool) {
	return "", false
})

// canned returns a generator that always answers with text.
func canned(text string) chatFunc {
	return chatFunc(func(context.Context, string, string, bool) (string, bool) {
		return text, true
	})
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, gen Generator) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mistakes.csv"), quietLog())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewService(st, gen, quietLog()), st
}

func sampleRequest() Request {
	return Request{
		MistakeID:       "abcd1234",
		QuestionContent: "Evaluate the limit of sin(x)/x as x approaches 0",
		WrongProcess:    "substituted 0 directly",
		WrongAnswer:     "0/0",
		CorrectAnswer:   "1",
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	reply := "```json\n" + `{
		"error_type": "Concept Misunderstanding",
		"root_cause": "did not recognize a standard limit",
		"knowledge_gap": ["Standard Limits"],
		"learning_suggestions": ["memorize the standard limits"],
		"similar_examples": ["lim(x->0) tan(x)/x"],
		"confidence_score": 0.85
	}` + "\n```"
	svc, _ := newTestService(t, canned(reply))

	a, err := svc.Analyze(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.ErrorType != "Concept Misunderstanding" {
		t.Fatalf("error_type = %q", a.ErrorType)
	}
	if a.MistakeID != "abcd1234" {
		t.Fatalf("mistake_id = %q", a.MistakeID)
	}
	if a.ConfidenceScore != 0.85 {
		t.Fatalf("confidence = %v", a.ConfidenceScore)
	}
	if len(a.KnowledgeGap) != 1 || a.KnowledgeGap[0] != "Standard Limits" {
		t.Fatalf("knowledge_gap = %v", a.KnowledgeGap)
	}
}

func TestAnalyzeClampsConfidence(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`{"error_type":"E","root_cause":"R","confidence_score":1.5}`, 0.95},
		{`{"error_type":"E","root_cause":"R","confidence_score":-0.2}`, 0.7},
		{`{"error_type":"E","root_cause":"R","confidence_score":0.8}`, 0.8},
		{`{"error_type":"E","root_cause":"R"}`, 0.8},
	}
	for _, tc := range cases {
		svc, _ := newTestService(t, canned(tc.in))
		a, err := svc.Analyze(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("analyze %q: %v", tc.in, err)
		}
		if a.ConfidenceScore != tc.want {
			t.Fatalf("confidence for %q = %v, want %v", tc.in, a.ConfidenceScore, tc.want)
		}
	}
}

func TestAnalyzeFillsMissingFields(t *testing.T) {
	svc, _ := newTestService(t, canned(`{"confidence_score":0.9}`))

	a, err := svc.Analyze(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.ErrorType != "Unknown Error Type" {
		t.Fatalf("error_type = %q", a.ErrorType)
	}
	if a.RootCause != "Unknown Root Cause" {
		t.Fatalf("root_cause = %q", a.RootCause)
	}
	if a.KnowledgeGap == nil || a.LearningSuggestions == nil || a.SimilarExamples == nil {
		t.Fatal("list fields must be empty, not nil")
	}
}

func TestAnalyzeFallbackWhenOffline(t *testing.T) {
	svc, _ := newTestService(t, offline)

	a, err := svc.Analyze(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.ErrorType == "" || a.RootCause == "" {
		t.Fatalf("fallback analysis incomplete: %+v", a)
	}
	if a.ConfidenceScore < 0.7 || a.ConfidenceScore > 0.95 {
		t.Fatalf("fallback confidence out of range: %v", a.ConfidenceScore)
	}
	if len(a.SimilarExamples) != 3 {
		t.Fatalf("expected 3 similar examples, got %d", len(a.SimilarExamples))
	}
	if len(a.LearningSuggestions) == 0 {
		t.Fatal("fallback has no learning suggestions")
	}
}

func TestAnalyzeFallbackOnGarbageOutput(t *testing.T) {
	for _, reply := range []string{
		"I cannot help with that.",
		`"just a string"`,
		`{"error_type": 42}`,
	} {
		svc, _ := newTestService(t, canned(reply))
		a, err := svc.Analyze(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("analyze with reply %q: %v", reply, err)
		}
		if a.ConfidenceScore < 0.7 || a.ConfidenceScore > 0.95 {
			t.Fatalf("fallback confidence out of range for %q: %v", reply, a.ConfidenceScore)
		}
	}
}

func TestAnalyzeRecordPersists(t *testing.T) {
	svc, st := newTestService(t, offline)
	rec, err := st.Create(mistake.Create{
		QuestionContent: "q", WrongProcess: "p", WrongAnswer: "w", CorrectAnswer: "c",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := svc.AnalyzeRecord(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("analyze record: %v", err)
	}
	if a == nil {
		t.Fatal("expected an analysis")
	}
	if a.MistakeID != rec.ID {
		t.Fatalf("mistake_id = %q, want %q", a.MistakeID, rec.ID)
	}

	got, err := st.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Analysis == nil {
		t.Fatal("analysis was not persisted")
	}
	if got.Analysis.ErrorType != a.ErrorType {
		t.Fatalf("persisted error_type = %q, want %q", got.Analysis.ErrorType, a.ErrorType)
	}

	// Re-analysis replaces, never appends.
	if _, err := svc.AnalyzeRecord(context.Background(), rec.ID); err != nil {
		t.Fatalf("re-analyze: %v", err)
	}
	again, err := st.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Analysis == nil {
		t.Fatal("analysis missing after re-analysis")
	}
}

func TestAnalyzeRecordUnknownID(t *testing.T) {
	svc, _ := newTestService(t, offline)
	a, err := svc.AnalyzeRecord(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Fatalf("expected nil analysis for unknown id, got %+v", a)
	}
}

func TestAnalyzeRecordSurvivesVanishedRecord(t *testing.T) {
	// The record disappears between Get and SetAnalysis; the computed
	// analysis is still returned.
	st, err := store.Open(filepath.Join(t.TempDir(), "mistakes.csv"), quietLog())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := NewService(st, chatFunc(func(context.Context, string, string, bool) (string, bool) {
		recs, _ := st.List(store.Filter{})
		for i := range recs {
			st.Delete(recs[i].ID)
		}
		return "", false
	}), quietLog())
	rec, err := st.Create(mistake.Create{
		QuestionContent: "q", WrongProcess: "p", WrongAnswer: "w", CorrectAnswer: "c",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := svc.AnalyzeRecord(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("analyze record: %v", err)
	}
	if a == nil {
		t.Fatal("expected the computed analysis despite the lost persist")
	}
}

func TestGeneratePracticeFallback(t *testing.T) {
	svc, _ := newTestService(t, offline)

	qs, err := svc.GeneratePractice(context.Background(), []string{"Limit", "Derivative", "Matrix"}, 7, mistake.DifficultyHard, "high")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(qs) != 7 {
		t.Fatalf("expected 7 questions, got %d", len(qs))
	}
	for i, q := range qs {
		if q.ID != practiceID(i) {
			t.Fatalf("question %d id = %q", i, q.ID)
		}
		if q.Difficulty != mistake.DifficultyHard {
			t.Fatalf("question %d difficulty = %q", i, q.Difficulty)
		}
		if q.SimilarityLevel != "high" {
			t.Fatalf("question %d similarity = %q", i, q.SimilarityLevel)
		}
		if len(q.KnowledgeTags) != 2 {
			t.Fatalf("question %d tags = %v, want first two gaps", i, q.KnowledgeTags)
		}
		if q.CorrectAnswer == "" || q.Explanation == "" {
			t.Fatalf("question %d incomplete: %+v", i, q)
		}
	}
	// The base list is shorter than 7; it cycles.
	if qs[0].CorrectAnswer != qs[5].CorrectAnswer {
		t.Fatal("expected the base list to cycle")
	}
}

func TestGeneratePracticeCountBounds(t *testing.T) {
	svc, _ := newTestService(t, offline)

	qs, err := svc.GeneratePractice(context.Background(), nil, 0, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("default count = %d, want 5", len(qs))
	}
	if qs[0].KnowledgeTags[0] != "Basic Math" {
		t.Fatalf("empty gaps should tag Basic Math, got %v", qs[0].KnowledgeTags)
	}

	qs, err = svc.GeneratePractice(context.Background(), nil, 100, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(qs) != 20 {
		t.Fatalf("clamped count = %d, want 20", len(qs))
	}
}

func TestGeneratePracticeFromService(t *testing.T) {
	reply := `[
		{"question_content":"Differentiate x^4","correct_answer":"4x^3","explanation":"power rule"},
		{"question_content":"Differentiate x^5","options":["5x^4","x^4"],"correct_answer":"5x^4","explanation":"power rule"}
	]`
	svc, _ := newTestService(t, canned(reply))

	qs, err := svc.GeneratePractice(context.Background(), []string{"Derivative"}, 2, mistake.DifficultyEasy, "medium")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].QuestionContent != "Differentiate x^4" {
		t.Fatalf("question 0 = %q", qs[0].QuestionContent)
	}
	if qs[1].ID != "PQ002" {
		t.Fatalf("question 1 id = %q", qs[1].ID)
	}
	if len(qs[1].Options) != 2 {
		t.Fatalf("question 1 options = %v", qs[1].Options)
	}
	if qs[0].Difficulty != mistake.DifficultyEasy {
		t.Fatalf("question 0 difficulty = %q", qs[0].Difficulty)
	}
}

func TestGeneratePracticeTruncatesExcess(t *testing.T) {
	reply := `[
		{"question_content":"a","correct_answer":"1","explanation":"x"},
		{"question_content":"b","correct_answer":"2","explanation":"x"},
		{"question_content":"c","correct_answer":"3","explanation":"x"}
	]`
	svc, _ := newTestService(t, canned(reply))

	qs, err := svc.GeneratePractice(context.Background(), nil, 2, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
}

func TestExplainConceptFromBank(t *testing.T) {
	svc, _ := newTestService(t, offline)

	e, err := svc.ExplainConcept(context.Background(), "Derivative")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if e.Concept != "Derivative" {
		t.Fatalf("concept = %q", e.Concept)
	}
	if !strings.Contains(e.Definition, "rate of change") {
		t.Fatalf("definition = %q", e.Definition)
	}
	if e.Note == "" {
		t.Fatal("fallback explanation should carry a note")
	}
}

func TestExplainConceptUnknownFallback(t *testing.T) {
	svc, _ := newTestService(t, offline)

	e, err := svc.ExplainConcept(context.Background(), "Obscure Topic")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(e.Definition, "Obscure Topic") {
		t.Fatalf("definition = %q", e.Definition)
	}
	if len(e.KeyPoints) == 0 {
		t.Fatal("fallback explanation has no key points")
	}
}

func TestExplainConceptFromService(t *testing.T) {
	reply := `{"definition":"d","formula":"f","key_points":["k1"],"example":"e"}`
	svc, _ := newTestService(t, canned(reply))

	e, err := svc.ExplainConcept(context.Background(), "Limit")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if e.Definition != "d" || e.Formula != "f" || e.Example != "e" {
		t.Fatalf("unexpected explanation: %+v", e)
	}
	if e.Concept != "Limit" {
		t.Fatalf("concept = %q", e.Concept)
	}
}

func TestExplainSteps(t *testing.T) {
	svc, _ := newTestService(t, canned("Step 1: recognize the standard limit.\nStep 2: conclude 1."))
	out, err := svc.ExplainSteps(context.Background(), "lim sin(x)/x")
	if err != nil {
		t.Fatalf("explain steps: %v", err)
	}
	if !strings.Contains(out, "Step 1") {
		t.Fatalf("unexpected output %q", out)
	}

	svc, _ = newTestService(t, offline)
	out, err = svc.ExplainSteps(context.Background(), "lim sin(x)/x")
	if err != nil {
		t.Fatalf("explain steps offline: %v", err)
	}
	if !strings.Contains(out, "unavailable") {
		t.Fatalf("unexpected offline placeholder %q", out)
	}
}

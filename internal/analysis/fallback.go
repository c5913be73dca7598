package analysis

import (
	"math"
	"math/rand"

	"github.com/error-T-T/mathmistake/internal/mistake"
)

// mockEntry is one row of the synthetic analysis table. Fallback output is
// drawn from this table so the analyze operation stays available with zero
// external dependencies.
type mockEntry struct {
	errorType    string
	rootCause    string
	knowledgeGap []string
	suggestion   string
}

var mockEntries = []mockEntry{
	{
		errorType:    "Concept Misunderstanding",
		rootCause:    "Insufficient understanding of basic concepts",
		knowledgeGap: []string{"Definite Integral Concept", "Fundamental Theorem of Calculus"},
		suggestion:   "Review basic concepts and deepen understanding through examples",
	},
	{
		errorType:    "Calculation Error",
		rootCause:    "Carelessness in calculation process",
		knowledgeGap: []string{"Derivative Calculation Rules", "Chain Rule"},
		suggestion:   "Practice more calculations to improve accuracy",
	},
	{
		errorType:    "Formula Memory Error",
		rootCause:    "Vague memory of relevant formulas",
		knowledgeGap: []string{"Trigonometric Formulas", "Induction Formulas"},
		suggestion:   "Organize common formulas and review them regularly",
	},
	{
		errorType:    "Careless Reading",
		rootCause:    "Inadequate understanding of question conditions",
		knowledgeGap: []string{"Limit Calculation", "L'Hopital's Rule"},
		suggestion:   "Read questions carefully and mark key conditions",
	},
	{
		errorType:    "Logical Reasoning Error",
		rootCause:    "Logical loopholes in reasoning steps",
		knowledgeGap: []string{"Matrix Operations", "Determinant Calculation"},
		suggestion:   "Learn standard problem-solving steps and cultivate logical thinking",
	},
	{
		errorType:    "Symbol Usage Error",
		rootCause:    "Non-standard use of mathematical symbols",
		knowledgeGap: []string{"Differential Equation Solving", "Separation of Variables"},
		suggestion:   "Standardize mathematical symbol usage to avoid confusion",
	},
}

var mockExamples = []string{
	"Similar question: calculate integral(0 to pi) sin x dx",
	"Similar question: find the derivative of f(x)=x^2 at x=1",
	"Similar question: calculate lim(x->0) (1-cos x)/x^2",
	"Similar question: solve the equation dy/dx = 3x^2",
	"Similar question: find the eigenvalues of the matrix [[2,1],[1,2]]",
}

// mockAnalysis synthesizes a complete analysis from the fixed table.
// It never fails.
func (s *Service) mockAnalysis(mistakeID string) *mistake.Analysis {
	e := mockEntries[rand.Intn(len(mockEntries))]

	examples := make([]string, 3)
	for i := range examples {
		examples[i] = mockExamples[rand.Intn(len(mockExamples))]
	}

	return &mistake.Analysis{
		MistakeID:           mistakeID,
		ErrorType:           e.errorType,
		RootCause:           e.rootCause,
		KnowledgeGap:        e.knowledgeGap,
		LearningSuggestions: []string{e.suggestion},
		SimilarExamples:     examples,
		ConfidenceScore:     roundScore(minConfidence + rand.Float64()*(maxConfidence-minConfidence)),
	}
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

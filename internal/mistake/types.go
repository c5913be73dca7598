package mistake

import "time"

// QuestionType categorizes a recorded problem.
type QuestionType string

const (
	TypeCalculation   QuestionType = "calculation"
	TypeProof         QuestionType = "proof"
	TypeApplication   QuestionType = "application"
	TypeChoice        QuestionType = "choice"
	TypeFillBlank     QuestionType = "fill-blank"
	TypeComprehensive QuestionType = "comprehensive"
)

// DefaultQuestionType is applied when a record is created without a type.
const DefaultQuestionType = TypeCalculation

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeCalculation, TypeProof, TypeApplication, TypeChoice, TypeFillBlank, TypeComprehensive:
		return true
	}
	return false
}

// Difficulty rates how hard a problem is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// DefaultDifficulty is applied when a record is created without a difficulty.
const DefaultDifficulty = DifficultyMedium

// Valid reports whether d is a known difficulty level.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Record is one stored mistake: the problem, the student's wrong working,
// and (after at least one successful analysis run) the attached Analysis.
type Record struct {
	ID              string       `json:"id"`
	QuestionContent string       `json:"question_content"`
	WrongProcess    string       `json:"wrong_process"`
	WrongAnswer     string       `json:"wrong_answer"`
	CorrectAnswer   string       `json:"correct_answer"`
	QuestionType    QuestionType `json:"question_type"`
	KnowledgeTags   []string     `json:"knowledge_tags"`
	Difficulty      Difficulty   `json:"difficulty"`
	Source          string       `json:"source,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	// Analysis is nil until an analysis run succeeds for this record.
	// Re-analysis overwrites it; it is never appended.
	Analysis *Analysis `json:"analysis_result,omitempty"`
}

// Create holds the caller-supplied fields for a new record.
// The four text fields are required; type and difficulty default when empty.
type Create struct {
	QuestionContent string       `json:"question_content"`
	WrongProcess    string       `json:"wrong_process"`
	WrongAnswer     string       `json:"wrong_answer"`
	CorrectAnswer   string       `json:"correct_answer"`
	QuestionType    QuestionType `json:"question_type"`
	KnowledgeTags   []string     `json:"knowledge_tags"`
	Difficulty      Difficulty   `json:"difficulty"`
	Source          string       `json:"source"`
	Notes           string       `json:"notes"`
}

// Validate checks required fields and enum values.
// It returns a *ValidationError describing the first problem found.
func (c Create) Validate() error {
	required := []struct {
		field, value string
	}{
		{"question_content", c.QuestionContent},
		{"wrong_process", c.WrongProcess},
		{"wrong_answer", c.WrongAnswer},
		{"correct_answer", c.CorrectAnswer},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	if c.QuestionType != "" && !c.QuestionType.Valid() {
		return &ValidationError{Field: "question_type", Reason: "unknown value " + string(c.QuestionType)}
	}
	if c.Difficulty != "" && !c.Difficulty.Valid() {
		return &ValidationError{Field: "difficulty", Reason: "unknown value " + string(c.Difficulty)}
	}
	return nil
}

// Update holds a partial set of field changes. Nil fields are left untouched.
type Update struct {
	QuestionContent *string       `json:"question_content"`
	WrongProcess    *string       `json:"wrong_process"`
	WrongAnswer     *string       `json:"wrong_answer"`
	CorrectAnswer   *string       `json:"correct_answer"`
	QuestionType    *QuestionType `json:"question_type"`
	KnowledgeTags   *[]string     `json:"knowledge_tags"`
	Difficulty      *Difficulty   `json:"difficulty"`
	Source          *string       `json:"source"`
	Notes           *string       `json:"notes"`
}

// Validate checks enum values on the supplied fields.
func (u Update) Validate() error {
	if u.QuestionType != nil && !u.QuestionType.Valid() {
		return &ValidationError{Field: "question_type", Reason: "unknown value " + string(*u.QuestionType)}
	}
	if u.Difficulty != nil && !u.Difficulty.Valid() {
		return &ValidationError{Field: "difficulty", Reason: "unknown value " + string(*u.Difficulty)}
	}
	return nil
}

// Analysis is the structured diagnostic output of one analysis run.
type Analysis struct {
	MistakeID           string   `json:"mistake_id"`
	ErrorType           string   `json:"error_type"`
	RootCause           string   `json:"root_cause"`
	KnowledgeGap        []string `json:"knowledge_gap"`
	LearningSuggestions []string `json:"learning_suggestions"`
	SimilarExamples     []string `json:"similar_examples"`

	// ConfidenceScore is clamped to [0.7, 0.95]; the generation service's
	// stated value is untrusted.
	ConfidenceScore float64 `json:"confidence_score"`
}

// GeneratedQuestion is one practice problem produced for a set of knowledge
// gaps. IDs are a per-call counter (PQ001, PQ002, ...) and are not checked
// for collisions against previously generated questions; these values are
// transient unless a caller chooses to keep them.
type GeneratedQuestion struct {
	ID              string     `json:"id"`
	QuestionContent string     `json:"question_content"`
	Options         []string   `json:"options,omitempty"`
	CorrectAnswer   string     `json:"correct_answer"`
	Explanation     string     `json:"explanation"`
	Difficulty      Difficulty `json:"difficulty"`
	KnowledgeTags   []string   `json:"knowledge_tags"`
	SimilarityLevel string     `json:"similarity_level,omitempty"`
	SourceMistakeID string     `json:"source_mistake_id,omitempty"`
}

// ConceptExplanation is the structured output of a concept-explanation run.
type ConceptExplanation struct {
	Concept    string   `json:"concept"`
	Definition string   `json:"definition"`
	Formula    string   `json:"formula"`
	KeyPoints  []string `json:"key_points"`
	Example    string   `json:"example"`
	Note       string   `json:"note,omitempty"`
}

package prompt

// Template names.
const (
	MistakeAnalysis           = "mistake_analysis"
	SimilarQuestionGeneration = "similar_question_generation"
	ExplanationGeneration     = "explanation_generation"
	ConceptExplanation        = "concept_explanation"
)

func init() {
	register(MistakeAnalysis, mistakeAnalysisText,
		"question_content", "wrong_answer", "wrong_process", "correct_answer")
	register(SimilarQuestionGeneration, similarQuestionText,
		"count", "question_content", "knowledge_tags", "difficulty", "similarity_level")
	register(ExplanationGeneration, explanationText,
		"question_content")
	register(ConceptExplanation, conceptText,
		"concept")
}

const mistakeAnalysisText = `You are an experienced university math tutor. Please analyze the following student mistake:

[Question Content]
{{.question_content}}

[Student Wrong Answer]
{{.wrong_answer}}

[Student Wrong Process]
{{.wrong_process}}

[Correct Answer]
{{.correct_answer}}

Please provide the analysis result in the following JSON format (do not include Markdown code block markers):
{
    "error_type": "Error type (e.g., Calculation Error, Concept Misunderstanding)",
    "root_cause": "Root cause analysis (concise)",
    "knowledge_gap": ["Knowledge point 1", "Knowledge point 2"],
    "learning_suggestions": ["Suggestion 1", "Suggestion 2"],
    "similar_examples": ["Similar example 1 (question only)", "Similar example 2 (question only)"],
    "confidence_score": 0.85
}

Ensure confidence_score is between 0.7 and 0.95.`

const similarQuestionText = `Please generate {{.count}} similar practice questions based on the following question.

[Original Question]
{{.question_content}}

[Knowledge Points]
{{.knowledge_tags}}

[Difficulty]
{{.difficulty}}

[Similarity Level]
{{.similarity_level}} (high: variant/value change, medium: same type, low: cross-knowledge synthesis)

Please return the following JSON list (do not include Markdown code block markers):
[
    {
        "question_content": "Question content",
        "options": ["Option A", "Option B", "Option C", "Option D"],
        "correct_answer": "Correct answer",
        "explanation": "Brief explanation"
    }
]
Omit "options" unless the question is multiple choice.`

const explanationText = `Please provide a detailed step-by-step explanation for the following math question:

[Question]
{{.question_content}}

Please output in the following structure:
1. Solution strategy: analyze the question and the approach.
2. Detailed steps: show the derivation step by step.
3. Summary: review key points and common pitfalls.`

const conceptText = `Please explain the math concept: {{.concept}}

Return the following JSON format:
{
    "definition": "Concept definition",
    "formula": "Relevant formula (if any)",
    "key_points": ["Key point 1", "Key point 2", "Key point 3"],
    "example": "Worked example",
    "note": "Note"
}`

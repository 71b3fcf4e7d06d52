package ai

import "context"

// EvaluationInput contains the artefacts needed to pre-grade a submission.
type EvaluationInput struct {
	AssignmentTitle string
	Description     string
	Content         string
	FileURL         string
}

// EvaluationResult is the structured feedback returned by the AI evaluator.
type EvaluationResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Evaluator describes a model capable of pre-grading submitted work. Its
// output is stored as an evaluation with the is_ai flag set; teachers
// override it with their own entry rather than editing it.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error)
}

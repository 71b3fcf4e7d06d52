package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classops",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classops",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"model"})
)

// resultSchema constrains the model's JSON reply before it is trusted.
const resultSchema = `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"feedback": {"type": "string", "minLength": 1}
	}
}`

const systemPrompt = "You are a grading assistant. Reply with a single JSON object " +
	`{"score": <0-100>, "feedback": "<short constructive feedback>"} and nothing else.`

// OpenAIConfig defines configuration options for the OpenAI evaluator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIEvaluator implements Evaluator against the OpenAI chat completion API.
type OpenAIEvaluator struct {
	client *openai.Client
	cfg    OpenAIConfig
	schema *jsonschema.Schema
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIEvaluator builds a new evaluator using the provided configuration.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*OpenAIEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}

	schema, err := jsonschema.CompileString("evaluation_result.json", resultSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile result schema: %w", err)
	}

	return &OpenAIEvaluator{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		schema: schema,
		tracer: otel.Tracer("github.com/noah-isme/classops-api/pkg/ai"),
		logger: cfg.Logger.With().Str("component", "ai_evaluator").Logger(),
	}, nil
}

// Evaluate asks the model for a score and feedback, validating the reply
// against the result schema before returning it.
func (e *OpenAIEvaluator) Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error) {
	ctx, span := e.tracer.Start(ctx, "ai.evaluate", trace.WithAttributes(
		attribute.String("ai.model", e.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(input)},
		},
	})
	aiDuration.WithLabelValues(e.cfg.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion_failed")
		return EvaluationResult{}, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		return EvaluationResult{}, fmt.Errorf("empty completion response")
	}

	raw := extractJSON(resp.Choices[0].Message.Content)

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		return EvaluationResult{}, fmt.Errorf("model reply is not valid JSON: %w", err)
	}

	if err := e.schema.Validate(decoded); err != nil {
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema_validation_failed")
		return EvaluationResult{}, fmt.Errorf("model reply failed schema validation: %w", err)
	}

	var result EvaluationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return EvaluationResult{}, fmt.Errorf("failed to decode evaluation result: %w", err)
	}

	e.logger.Info().Float64("score", result.Score).Msg("ai evaluation completed")

	return result, nil
}

func buildUserPrompt(input EvaluationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assignment: %s\n", input.AssignmentTitle)
	if input.Description != "" {
		fmt.Fprintf(&b, "Instructions: %s\n", input.Description)
	}
	if input.FileURL != "" {
		fmt.Fprintf(&b, "Attached file: %s\n", input.FileURL)
	}
	fmt.Fprintf(&b, "\nSubmitted work:\n%s\n", input.Content)

	return b.String()
}

// extractJSON strips markdown code fences some models wrap JSON replies in.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}

	return strings.TrimSpace(trimmed)
}

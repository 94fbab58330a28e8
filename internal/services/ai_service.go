package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studyquiz/internal/config"
	"studyquiz/internal/models"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// questionSetSchema validates the generator's JSON payload before anything is
// persisted. Bounds on correct_answer are checked separately because they
// depend on the option list length.
const questionSetSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["question", "options", "correct_answer"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {
						"type": "array",
						"minItems": 2,
						"items": {"type": "string"}
					},
					"correct_answer": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

// AIServiceInterface defines the quiz question generator boundary.
// This allows for easier mocking in tests.
type AIServiceInterface interface {
	GenerateQuestions(ctx context.Context, course *models.Course) ([]models.QuizQuestion, error)
}

// AIService generates quiz questions using an OpenAI-compatible chat
// completions API.
type AIService struct {
	httpClient *http.Client
	cfg        *config.Config
	logger     *observability.Logger
}

// NewAIService creates a new AI quiz generator service
func NewAIService(cfg *config.Config, logger *observability.Logger) *AIService {
	httpClient := &http.Client{
		Timeout: config.GenerationRequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	return &AIService{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     logger,
	}
}

type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type generatedQuestionSet struct {
	Questions []models.QuizQuestion `json:"questions"`
}

// GenerateQuestions asks the configured generator for a full question set for
// one quiz of the given course. The response is schema-validated and bounds
// checked before it is returned; nothing reaches the database unvalidated.
func (s *AIService) GenerateQuestions(ctx context.Context, course *models.Course) (result0 []models.QuizQuestion, err error) {
	ctx, span := observability.TraceGeneratorFunction(ctx, "GenerateQuestions",
		observability.AttributeCourseName(course.Name),
		observability.AttributeQuestionCount(course.QuestionsPerQuiz),
		observability.AttributeModel(s.cfg.Generator.Model),
	)
	defer observability.FinishSpan(span, &err)

	if s.cfg.Generator.URL == "" {
		return nil, contextutils.WrapError(contextutils.ErrGeneratorUnavailable, "generator URL is not configured")
	}

	reqBody := chatCompletionRequest{
		Model: s.cfg.Generator.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a quiz generator. Respond with JSON only, no prose."},
			{Role: "user", Content: s.buildPrompt(course)},
		},
		Temperature:    s.cfg.Generator.Temperature,
		MaxTokens:      s.cfg.Generator.MaxTokens,
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to marshal generator request")
	}

	apiURL := strings.TrimSuffix(s.cfg.Generator.URL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create generator HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Generator.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Generator.APIKey)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error(ctx, "Generator request failed", err, map[string]interface{}{
			"url":   apiURL,
			"model": s.cfg.Generator.Model,
		})
		return nil, contextutils.WrapError(contextutils.ErrGeneratorUnavailable, err.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close generator response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	span.SetAttributes(
		attribute.Int("generator.status_code", resp.StatusCode),
		attribute.Int64("generator.duration_ms", time.Since(start).Milliseconds()),
	)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to read generator response")
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error(ctx, "Generator returned non-OK status", nil, map[string]interface{}{
			"status": resp.StatusCode,
			"body":   truncateForLog(string(body)),
		})
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "generator returned status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrGenerationResponseInvalid, "generator response is not valid JSON")
	}
	if len(completion.Choices) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrGenerationResponseInvalid, "generator response contains no choices")
	}

	questions, err := s.parseQuestions(completion.Choices[0].Message.Content, course.QuestionsPerQuiz)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("generator.questions_returned", len(questions)))
	return questions, nil
}

// buildPrompt assembles the generation prompt from the course definition
func (s *AIService) buildPrompt(course *models.Course) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate exactly %d multiple-choice questions about the topic %q.\n", course.QuestionsPerQuiz, course.Name)
	if course.Content != "" {
		fmt.Fprintf(&sb, "Base the questions on this material:\n%s\n", course.Content)
	}
	if course.AdditionalInfo.Valid && course.AdditionalInfo.String != "" {
		fmt.Fprintf(&sb, "Additional guidance: %s\n", course.AdditionalInfo.String)
	}
	sb.WriteString(`Respond with a JSON object of the form {"questions": [{"question": "...", "options": ["a", "b", "c", "d"], "correct_answer": 0}]}. `)
	sb.WriteString("Each question must have exactly 4 options and correct_answer must be the zero-based index of the right option.")
	return sb.String()
}

// parseQuestions extracts, schema-validates, and bounds-checks the question
// payload found in the model's message content.
func (s *AIService) parseQuestions(content string, expectedCount int) (result0 []models.QuizQuestion, err error) {
	payload := extractJSONObject(content)
	if payload == "" {
		return nil, contextutils.WrapError(contextutils.ErrGenerationResponseInvalid, "no JSON object found in generator output")
	}

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(questionSetSchema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrGenerationResponseInvalid, err.Error())
	}
	if !validation.Valid() {
		var msgs []string
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid, "question set failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var set generatedQuestionSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrGenerationResponseInvalid, err.Error())
	}

	for i, q := range set.Questions {
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return nil, contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid,
				"question %d has correct_answer %d outside its %d options", i, q.CorrectAnswer, len(q.Options))
		}
	}

	// Some models return more or fewer questions than asked for; too few is an
	// error, extras are trimmed.
	if len(set.Questions) < expectedCount {
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid,
			"generator returned %d questions, expected %d", len(set.Questions), expectedCount)
	}
	if len(set.Questions) > expectedCount {
		set.Questions = set.Questions[:expectedCount]
	}

	return set.Questions, nil
}

// extractJSONObject returns the outermost JSON object embedded in content.
// Models sometimes wrap their JSON in markdown fences or stray prose.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

func truncateForLog(s string) string {
	const max = 512
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

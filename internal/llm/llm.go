package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mertcaliskan34/ExamGenerator/internal/llm/prompts"
	"github.com/mertcaliskan34/ExamGenerator/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// GeneratedQuestion is one question as returned by the question generator,
// before validation. Field values are untrusted until the creation pipeline's
// validation pass accepts them.
type GeneratedQuestion struct {
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// GradeResult holds the grader's assessment of a single open-ended answer.
type GradeResult struct {
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

// Client wraps an OpenAI-compatible API client serving both the question
// generator and the open-ended answer grader.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// GenerateQuestions asks the model for exam questions based on the extracted
// document text. Transport failures surface as ErrGeneratorUnavailable;
// unparseable output as ErrGenerationInvalid.
func (c *Client) GenerateQuestions(ctx context.Context, text string, cfg model.GenerationConfig) ([]GeneratedQuestion, error) {
	prompt := prompts.BuildGenerationPrompt(text, cfg)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGeneratorUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", model.ErrGeneratorUnavailable)
	}

	raw := prompts.StripFences(resp.Choices[0].Message.Content)
	slog.Debug("generator response", "raw", raw)
	return parseGeneratedQuestions(raw)
}

func parseGeneratedQuestions(raw string) ([]GeneratedQuestion, error) {
	var wrapper struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && wrapper.Questions != nil {
		return wrapper.Questions, nil
	}

	// Some models return a bare array despite the wrapper instruction.
	var list []GeneratedQuestion
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", model.ErrGenerationInvalid, err)
	}
	return list, nil
}

// GradeOpenEnded asks the model to judge a student's open-ended answer against
// the question's reference answer.
func (c *Client) GradeOpenEnded(ctx context.Context, question model.Question, userAnswer string) (*GradeResult, error) {
	prompt := prompts.BuildGradingPrompt(question, userAnswer)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("grading API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("grader returned no choices")
	}

	raw := prompts.StripFences(resp.Choices[0].Message.Content)
	var result GradeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse grading response: %w (raw: %s)", err, raw)
	}
	return &result, nil
}

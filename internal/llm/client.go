// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the OpenAI chat API behind the three model capabilities
// the discovery pipeline needs: query generation, relevance judgment with
// concept extraction, and support scoring. Responses are plain text parsed
// line by line; malformed output surfaces as ErrMalformedResponse so callers
// can skip the item rather than abort.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/paper-discovery/pkg/types"
)

// DefaultModel is used when the configuration names no model.
const DefaultModel = openai.GPT4Dot1Mini

var (
	// ErrNoAPIKey is returned by New when no API key is configured.
	ErrNoAPIKey = errors.New("openai api key not configured")
	// ErrEmptyGeneration is returned when the model produced no usable
	// queries or concepts after retries.
	ErrEmptyGeneration = errors.New("model returned no usable output")
	// ErrMalformedResponse is returned when a structured response cannot
	// be parsed.
	ErrMalformedResponse = errors.New("malformed model response")
)

// backoffBase is the base delay between completion retries. Package-level var
// for test substitution.
var backoffBase = 2 * time.Second

const systemMessage = "You are a helpful research assistant."

// completionAPI is the slice of the OpenAI client the package uses.
// *openai.Client satisfies it.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Relevance is a boolean accept/reject judgment with the model's rationale.
type Relevance struct {
	Accept    bool
	Rationale string
}

// Support is a numeric support score on the 0-10 scale with the model's
// reasoning.
type Support struct {
	Level     int
	Reasoning string
}

// Client issues prompts to the OpenAI chat API.
type Client struct {
	api        completionAPI
	model      string
	maxRetries int
}

// New creates a Client from configuration.
func New(cfg types.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		api:        openai.NewClient(cfg.APIKey),
		model:      model,
		maxRetries: maxRetries,
	}, nil
}

// Ping verifies the API key and connectivity by listing models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("pinging openai: %w", err)
	}
	return nil
}

// complete sends one prompt and returns the model's text, retrying transient
// failures with exponential backoff.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffBase * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("empty completion")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// GenerateQueries produces up to breadth search queries for a seed topic.
// accepted carries titles of already-accepted papers so the model avoids
// redundant queries. Returns ErrEmptyGeneration when nothing usable came back.
func (c *Client) GenerateQueries(ctx context.Context, seed string, breadth int, accepted []string) ([]string, error) {
	prompt, err := renderTemplate(queryPromptTmpl, struct {
		Seed    string
		Breadth int
		Context []string
	}{seed, breadth, accepted})
	if err != nil {
		return nil, fmt.Errorf("rendering query prompt: %w", err)
	}

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating queries for %q: %w", seed, err)
	}

	queries := parseQuotedLines(response)
	if len(queries) == 0 {
		return nil, fmt.Errorf("generating queries for %q: %w", seed, ErrEmptyGeneration)
	}
	if len(queries) > breadth {
		queries = queries[:breadth]
	}
	return queries, nil
}

// JudgeRelevance decides whether a paper is relevant to the research goal.
func (c *Client) JudgeRelevance(ctx context.Context, title, abstract, goal string) (Relevance, error) {
	prompt, err := renderTemplate(relevancePromptTmpl, struct {
		Title, Abstract, Goal string
	}{title, abstract, goal})
	if err != nil {
		return Relevance{}, fmt.Errorf("rendering relevance prompt: %w", err)
	}

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return Relevance{}, fmt.Errorf("judging relevance of %q: %w", title, err)
	}

	fields := parseLabeledLines(response)
	accept, ok := parseYesNo(fields["relevant"])
	if !ok {
		return Relevance{}, fmt.Errorf("judging relevance of %q: %w", title, ErrMalformedResponse)
	}
	return Relevance{Accept: accept, Rationale: fields["rationale"]}, nil
}

// ExtractConcepts pulls key concept phrases from an accepted paper. The
// concepts seed the next round of query generation.
func (c *Client) ExtractConcepts(ctx context.Context, title, abstract string) ([]string, error) {
	prompt, err := renderTemplate(conceptPromptTmpl, struct {
		Title, Abstract string
	}{title, abstract})
	if err != nil {
		return nil, fmt.Errorf("rendering concept prompt: %w", err)
	}

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extracting concepts from %q: %w", title, err)
	}

	concepts := parseQuotedLines(response)
	if len(concepts) == 0 {
		return nil, fmt.Errorf("extracting concepts from %q: %w", title, ErrEmptyGeneration)
	}
	return concepts, nil
}

// ScoreSupport scores how strongly a paper supports the research question on
// the 0-10 scale.
func (c *Client) ScoreSupport(ctx context.Context, title, abstract string, year int, question string) (Support, error) {
	prompt, err := renderTemplate(supportPromptTmpl, struct {
		Title, Abstract, Question string
		Year                      int
	}{title, abstract, question, year})
	if err != nil {
		return Support{}, fmt.Errorf("rendering support prompt: %w", err)
	}

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return Support{}, fmt.Errorf("scoring support for %q: %w", title, err)
	}

	fields := parseLabeledLines(response)
	level, err := parseSupportLevel(fields["support_level"])
	if err != nil {
		return Support{}, fmt.Errorf("scoring support for %q: %w", title, ErrMalformedResponse)
	}
	return Support{Level: level, Reasoning: fields["reasoning"]}, nil
}

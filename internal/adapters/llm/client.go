// Package llm adapts OpenAI-compatible chat models to the classifier and
// generator contracts. Prompts live in an embedded YAML pack; one Client
// serves both the cheap routing model and the generation model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/domain"
)

// Config holds what the adapter needs to reach the model endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	// Model drives artifact generation.
	Model string
	// RouterModel handles intent classification. Falls back to Model.
	RouterModel string
}

// Client implements ports.IntentClassifier, ports.Generator and
// ports.SlideSynthesizer over one chat-completions endpoint.
type Client struct {
	api     openai.Client
	model   string
	router  string
	prompts promptPack
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates the adapter. The API key is required; BaseURL is only needed
// for OpenAI-compatible gateways.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}

	prompts, err := loadPrompts()
	if err != nil {
		return nil, err
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	router := cfg.RouterModel
	if router == "" {
		router = cfg.Model
	}

	c := &Client{
		api:     openai.NewClient(reqOpts...),
		model:   cfg.Model,
		router:  router,
		prompts: prompts,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// completeJSON renders the named prompt, runs one chat completion and decodes
// the JSON response into out.
func (c *Client) completeJSON(ctx context.Context, model, prompt string, vars map[string]string, out any) error {
	system, user, err := c.prompts.render(prompt, vars)
	if err != nil {
		return err
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("model returned no choices")
	}

	text := resp.Choices[0].Message.Content
	if err := decodeJSON(text, out); err != nil {
		c.logger.Warn("undecodable model response", "prompt", prompt, "err", err)
		return fmt.Errorf("prompt %s: %w", prompt, err)
	}
	return nil
}

// historyContext renders the tail of the conversation for prompt grounding.
func historyContext(s *domain.Session, max int) string {
	h := s.ConversationHistory
	if len(h) == 0 {
		return ""
	}
	if len(h) > max {
		h = h[len(h)-max:]
	}
	out := "Recent conversation:\n"
	for _, t := range h {
		out += t.Role + ": " + t.Content + "\n"
	}
	return out
}

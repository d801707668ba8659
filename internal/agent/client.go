package agent

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"triage-assistant/internal/triage"
)

// ErrEmptyCompletion is returned when the provider responds without choices.
// Callers treat it like any other provider failure.
var ErrEmptyCompletion = errors.New("completion response contained no choices")

// Config carries the provider settings for the completion client.
type Config struct {
	APIKey  string
	BaseURL string // empty means the provider default
	Model   string
	Timeout time.Duration // bound on each outbound call
}

// Client calls an OpenAI-style chat-completion endpoint with the full
// conversation history and returns the assistant's reply text.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(oc),
		model:   model,
		timeout: timeout,
	}
}

// Complete implements triage.CompletionClient.
func (c *Client) Complete(ctx context.Context, history []triage.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := m.Role
		switch role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
		default:
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

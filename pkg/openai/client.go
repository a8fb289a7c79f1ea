package openai

import (
	"context"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/angelmondragon/artx-bot/pkg/config"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
)

const defaultModel = goopenai.GPT4oMini

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client produces a single chat completion from a system instruction plus user content.
type Client struct {
	api   chatCompleter
	model string
}

// NewClient builds a client from config. A missing API key yields a client
// whose calls fail with a configuration error.
func NewClient(cfg config.OpenAIConfig) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &Client{model: model}
	}
	clientCfg := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = base
	}
	return &Client{api: goopenai.NewClientWithConfig(clientCfg), model: model}
}

// Model returns the completion model in use.
func (c *Client) Model() string {
	return c.model
}

// Complete returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.api == nil {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "openai api key not configured")
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel — модель по умолчанию для llm.simple.
const DefaultModel = "claude-3-5-haiku-latest"

// defaultMaxTokens — лимит токенов ответа.
const defaultMaxTokens = 1024

// AnthropicProvider — Provider поверх Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider создаёт провайдер с указанным API-ключом.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Complete отправляет prompt одним user-сообщением и собирает
// текстовые блоки ответа.
func (p *AnthropicProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = DefaultModel
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

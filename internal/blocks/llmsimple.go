package blocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Cascade/internal/llm"
)

// BlockTypeLLMSimple — тип блока простой генерации текста.
const BlockTypeLLMSimple = "llm.simple"

// LLMSimpleBlock — один вызов LLM-провайдера.
//
// Параметры:
//
//	{"prompt": "...", "model": "..."}  // model опционален
//
// Output:
//
//	{"text": "..."}
//
// Без сконфигурированного провайдера блок не падает, а применяет
// детерминированное деградированное преобразование (prompt в верхнем
// регистре) — workflow остаётся запускаемым без внешних кредов.
type LLMSimpleBlock struct {
	provider llm.Provider
}

// NewLLMSimpleBlock создаёт блок. provider может быть nil.
func NewLLMSimpleBlock(provider llm.Provider) *LLMSimpleBlock {
	return &LLMSimpleBlock{provider: provider}
}

// Type возвращает тип блока.
func (b *LLMSimpleBlock) Type() string {
	return BlockTypeLLMSimple
}

// Run вызывает провайдер или деградированный fallback.
func (b *LLMSimpleBlock) Run(ctx context.Context, in *Input, rc *RunContext) (map[string]any, error) {
	prompt := ParamString(in.Params, "prompt")
	if prompt == "" {
		return nil, fmt.Errorf("%w: llm.simple requires 'prompt'", ErrInvalidParams)
	}
	model := ParamString(in.Params, "model")

	if b.provider == nil {
		rc.Log.Info(ctx, "llm.simple: no provider configured, using degraded transform", nil)
		return map[string]any{"text": strings.ToUpper(prompt)}, nil
	}

	text, err := b.provider.Complete(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	return map[string]any{"text": text}, nil
}

package llm

import "context"

// Provider — клиент генерации текста для блока llm.simple.
type Provider interface {
	// Complete отправляет prompt модели и возвращает текст ответа.
	Complete(ctx context.Context, model, prompt string) (string, error)
}

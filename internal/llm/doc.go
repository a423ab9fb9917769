// Package llm содержит провайдер генерации текста.
//
// Provider — узкий интерфейс для блока llm.simple; anthropic.go —
// реализация поверх Anthropic Messages API. Если API-ключ не
// сконфигурирован, блок работает в деградированном режиме без
// провайдера (см. blocks.LLMSimpleBlock).
package llm

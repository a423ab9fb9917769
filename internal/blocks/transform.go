package blocks

import (
	"context"
	"fmt"
	"strings"
)

// Типы трансформирующих блоков.
const (
	BlockTypeUppercase = "transform.uppercase"
	BlockTypeTemplate  = "transform.template"
)

// UppercaseBlock — перевод строки в верхний регистр.
//
// Параметры: {"text": "..."}. Output: {"text": "..."}.
type UppercaseBlock struct{}

// Type возвращает тип блока.
func (b *UppercaseBlock) Type() string {
	return BlockTypeUppercase
}

// Run возвращает text в верхнем регистре.
func (b *UppercaseBlock) Run(_ context.Context, in *Input, _ *RunContext) (map[string]any, error) {
	text := ParamString(in.Params, "text")
	return map[string]any{"text": strings.ToUpper(text)}, nil
}

// TemplateBlock — подстановка значений в шаблон.
//
// Параметры:
//
//	{"template": "hi {{name}}", "values": {"name": "x"}}
//
// Output: {"text": "hi x"}. Подстановка наивная: {{key}} → значение.
type TemplateBlock struct{}

// Type возвращает тип блока.
func (b *TemplateBlock) Type() string {
	return BlockTypeTemplate
}

// Run рендерит шаблон.
func (b *TemplateBlock) Run(_ context.Context, in *Input, _ *RunContext) (map[string]any, error) {
	tmpl := ParamString(in.Params, "template")
	values := ParamMap(in.Params, "values")

	out := tmpl
	for key, value := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", fmt.Sprintf("%v", value))
	}

	return map[string]any{"text": out}, nil
}

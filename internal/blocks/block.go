package blocks

import (
	"context"
	"errors"
)

// Ошибки блоков.
var (
	// ErrUnknownBlockType — тип блока не найден в реестре.
	// Ошибка уровня узла: run падает, процесс продолжает работать.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrDuplicateBlockType — повторная регистрация типа блока.
	// Ошибка инициализации процесса.
	ErrDuplicateBlockType = errors.New("duplicate block type")

	// ErrInvalidParams — невалидные параметры узла.
	ErrInvalidParams = errors.New("invalid block params")
)

// Block — именованная единица работы, вызываемая с входом и
// run-контекстом. Возвращает output или ошибку уровня узла.
//
// Реализации не хранят состояние между вызовами: один экземпляр
// блока обслуживает все узлы всех runs.
type Block interface {
	// Type возвращает тип блока (ключ реестра).
	Type() string

	// Run выполняет блок. Блокирующие операции должны уважать ctx.
	Run(ctx context.Context, in *Input, rc *RunContext) (map[string]any, error)
}

// Input — вход одного вызова блока.
type Input struct {
	// NodeID — идентификатор узла.
	NodeID string

	// Params — параметры узла из графа.
	Params map[string]any

	// Upstream — node id прямого предшественника → его output.
	// Только прямые родители, только уже завершённые узлы.
	Upstream map[string]map[string]any

	// Trigger — полезная нагрузка триггера run.
	Trigger map[string]any
}

// NewInput создаёт Input с инициализированными полями.
func NewInput(nodeID string, params map[string]any, upstream map[string]map[string]any, trigger map[string]any) *Input {
	if params == nil {
		params = make(map[string]any)
	}
	if upstream == nil {
		upstream = make(map[string]map[string]any)
	}
	if trigger == nil {
		trigger = make(map[string]any)
	}
	return &Input{
		NodeID:   nodeID,
		Params:   params,
		Upstream: upstream,
		Trigger:  trigger,
	}
}

// Snapshot возвращает вход в форме для input_json записи NodeRun:
// {params, upstream, trigger}.
func (in *Input) Snapshot() map[string]any {
	upstream := make(map[string]any, len(in.Upstream))
	for id, out := range in.Upstream {
		upstream[id] = out
	}
	return map[string]any{
		"params":   in.Params,
		"upstream": upstream,
		"trigger":  in.Trigger,
	}
}

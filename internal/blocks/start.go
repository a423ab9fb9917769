package blocks

import "context"

// BlockTypeStart — тип стартового блока.
const BlockTypeStart = "start"

// StartBlock — точка входа workflow.
//
// Параметры:
//
//	{"payload": {...}}  — опционально
//
// Output:
//
//	{"data": payload}  — params.payload, если задан, иначе
//	                     полезная нагрузка триггера run
type StartBlock struct{}

// Type возвращает тип блока.
func (b *StartBlock) Type() string {
	return BlockTypeStart
}

// Run возвращает payload из params или из триггера.
func (b *StartBlock) Run(_ context.Context, in *Input, _ *RunContext) (map[string]any, error) {
	payload, ok := in.Params["payload"]
	if !ok || payload == nil {
		payload = in.Trigger
	}
	return map[string]any{"data": payload}, nil
}

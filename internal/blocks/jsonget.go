package blocks

import "context"

// BlockTypeJSONGet — тип блока извлечения значения из JSON.
const BlockTypeJSONGet = "json.get"

// JSONGetBlock — извлечение вложенного значения по пути ключей.
//
// Параметры:
//
//	{"path": ["a", "b"], "source": {"a": {"b": 42}}}
//
// Output: {"value": 42}; отсутствующий путь даёт {"value": null},
// не ошибку.
type JSONGetBlock struct{}

// Type возвращает тип блока.
func (b *JSONGetBlock) Type() string {
	return BlockTypeJSONGet
}

// Run обходит source по path.
func (b *JSONGetBlock) Run(_ context.Context, in *Input, _ *RunContext) (map[string]any, error) {
	source := ParamMap(in.Params, "source")
	path := ParamStringSlice(in.Params, "path")

	var cur any = source
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			cur = nil
			break
		}
		cur, ok = m[key]
		if !ok {
			cur = nil
			break
		}
	}

	return map[string]any{"value": cur}, nil
}

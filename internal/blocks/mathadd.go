package blocks

import "context"

// BlockTypeMathAdd — тип блока сложения.
const BlockTypeMathAdd = "math.add"

// MathAddBlock — сложение двух чисел.
//
// Параметры: {"a": 1, "b": 2}. Output: {"result": 3}.
type MathAddBlock struct{}

// Type возвращает тип блока.
func (b *MathAddBlock) Type() string {
	return BlockTypeMathAdd
}

// Run складывает a и b.
func (b *MathAddBlock) Run(_ context.Context, in *Input, _ *RunContext) (map[string]any, error) {
	a := ParamFloat(in.Params, "a")
	bb := ParamFloat(in.Params, "b")
	return map[string]any{"result": a + bb}, nil
}

package blocks

import (
	"context"
	"time"
)

// BlockTypeSleep — тип блока паузы.
const BlockTypeSleep = "util.sleep"

// SleepBlock — неблокирующая пауза между узлами.
//
// Параметры: {"seconds": 0.5}. Output: {"slept": 0.5}.
type SleepBlock struct{}

// Type возвращает тип блока.
func (b *SleepBlock) Type() string {
	return BlockTypeSleep
}

// Run ждёт указанное время, уважая отмену контекста.
func (b *SleepBlock) Run(ctx context.Context, in *Input, _ *RunContext) (map[string]any, error) {
	seconds := ParamFloat(in.Params, "seconds")
	if seconds < 0 {
		seconds = 0
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return map[string]any{"slept": seconds}, nil
}

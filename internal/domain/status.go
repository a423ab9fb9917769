package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	pending → running → succeeded
//	                  ↘ failed
//
// Терминальный статус не меняется.
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "pending"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "running"

	// RunStatusSucceeded — все узлы выполнены успешно.
	RunStatusSucceeded RunStatus = "succeeded"

	// RunStatusFailed — run завершился с ошибкой (возможно, с частичными outputs).
	RunStatusFailed RunStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// NodeRunStatus — статус выполнения одного узла внутри run.
//
// Повторяет машину состояний run, но в масштабе узла:
//
//	pending → running → succeeded
//	                  ↘ failed
type NodeRunStatus string

const (
	// NodeRunStatusPending — узел ещё не начал выполняться.
	NodeRunStatusPending NodeRunStatus = "pending"

	// NodeRunStatusRunning — узел выполняется.
	NodeRunStatusRunning NodeRunStatus = "running"

	// NodeRunStatusSucceeded — узел выполнен, output записан.
	NodeRunStatusSucceeded NodeRunStatus = "succeeded"

	// NodeRunStatusFailed — узел упал, error записан.
	NodeRunStatusFailed NodeRunStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s NodeRunStatus) IsTerminal() bool {
	switch s {
	case NodeRunStatusSucceeded, NodeRunStatusFailed:
		return true
	default:
		return false
	}
}

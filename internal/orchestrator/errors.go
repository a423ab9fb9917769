package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrWorkflowNotFound — workflow не найден в БД.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidGraph — граф workflow не прошёл валидацию.
	ErrInvalidGraph = errors.New("invalid workflow graph")

	// ErrOrchestratorStopped — оркестратор остановлен, новые runs не принимаются.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)

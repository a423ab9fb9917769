package engine

import "errors"

// Ошибки валидации графа.
var (
	// ErrEmptyGraph — граф не содержит узлов.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("node has empty ID")

	// ErrDuplicateNode — несколько узлов с одинаковым ID.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrDanglingEdge — ребро ссылается на несуществующий узел.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrCycle — обнаружен цикл в графе.
	ErrCycle = errors.New("graph contains a cycle")
)

// ValidationError — ошибка валидации с контекстом.
//
// NodeID/EdgeID заполняются, когда ошибка привязана к конкретному
// узлу или ребру.
type ValidationError struct {
	NodeID  string // ID узла, где произошла ошибка
	EdgeID  string // ID ребра, вызвавшего ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	switch {
	case e.EdgeID != "":
		return "edge " + e.EdgeID + ": " + e.Message
	case e.NodeID != "":
		return "node " + e.NodeID + ": " + e.Message
	default:
		return e.Message
	}
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newNodeError(nodeID, message string, err error) *ValidationError {
	return &ValidationError{NodeID: nodeID, Message: message, Err: err}
}

func newEdgeError(edgeID, message string, err error) *ValidationError {
	return &ValidationError{EdgeID: edgeID, Message: message, Err: err}
}

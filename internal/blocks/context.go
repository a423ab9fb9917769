package blocks

import (
	"context"
	"net/http"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/storage"
)

// LogSink — приёмник персистентных лог-записей run.
//
// Реализуется executor'ом поверх репозитория logs. Ошибки записи
// sink глотает сам: падение логирования не валит узел.
type LogSink interface {
	Append(ctx context.Context, nodeID, level, message string, data map[string]any)
}

// RunLogger — логгер, привязанный к текущему run и (опционально)
// текущему узлу. Записи попадают в append-only журнал run.
type RunLogger struct {
	sink   LogSink
	nodeID string
}

// NewRunLogger создаёт логгер run без привязки к узлу.
func NewRunLogger(sink LogSink) *RunLogger {
	return &RunLogger{sink: sink}
}

// Info пишет info-запись.
func (l *RunLogger) Info(ctx context.Context, message string, data map[string]any) {
	l.sink.Append(ctx, l.nodeID, domain.LogLevelInfo, message, data)
}

// Error пишет error-запись.
func (l *RunLogger) Error(ctx context.Context, message string, data map[string]any) {
	l.sink.Append(ctx, l.nodeID, domain.LogLevelError, message, data)
}

// RunContext — бандл I/O-возможностей, передаваемый каждому вызову
// блока: исходящий HTTP-клиент, writer в blob-хранилище и логгер run.
//
// Контекст создаётся один раз перед первым узлом и не хранит
// бизнес-состояния. HTTP-клиент общий для всех узлов одного run
// (переиспользование соединений); Blobs привязан к одному bucket.
type RunContext struct {
	// HTTP — исходящий HTTP-клиент с фиксированным таймаутом на вызов.
	HTTP *http.Client

	// Blobs — writer в blob-хранилище.
	Blobs storage.Writer

	// Log — логгер, привязанный к run и текущему узлу.
	Log *RunLogger
}

// NewRunContext создаёт контекст run.
func NewRunContext(httpClient *http.Client, blobs storage.Writer, sink LogSink) *RunContext {
	return &RunContext{
		HTTP:  httpClient,
		Blobs: blobs,
		Log:   NewRunLogger(sink),
	}
}

// ForNode возвращает копию контекста с логгером, привязанным к узлу.
// Разделяемые ресурсы (HTTP, Blobs) остаются общими.
func (rc *RunContext) ForNode(nodeID string) *RunContext {
	return &RunContext{
		HTTP:  rc.HTTP,
		Blobs: rc.Blobs,
		Log:   &RunLogger{sink: rc.Log.sink, nodeID: nodeID},
	}
}

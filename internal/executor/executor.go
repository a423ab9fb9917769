package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/blocks"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/storage"
	"github.com/shaiso/Cascade/internal/telemetry"
)

// defaultHTTPTimeout — таймаут исходящих HTTP-вызовов блоков.
const defaultHTTPTimeout = 30 * time.Second

// NodeRunStore — персистентность записей NodeRun.
type NodeRunStore interface {
	// Create сохраняет новую запись NodeRun.
	Create(ctx context.Context, nr *domain.NodeRun) error

	// Update сохраняет терминальное состояние записи NodeRun.
	Update(ctx context.Context, nr *domain.NodeRun) error
}

// LogStore — персистентность append-only журнала run.
type LogStore interface {
	// Append добавляет лог-запись в журнал.
	Append(ctx context.Context, entry *domain.LogEntry) error
}

// Executor выполняет граф одного run: строго последовательно,
// в топологическом порядке, с fail-fast на первой ошибке узла.
//
// Executor не меняет статус run — он возвращает терминальный статус
// и накопленные outputs, а владелец записи run (orchestrator)
// фиксирует их.
type Executor struct {
	registry *blocks.Registry
	nodeRuns NodeRunStore
	logs     LogStore
	http     *http.Client
	blobs    storage.Writer
	logger   *slog.Logger
}

// Config — конфигурация Executor.
type Config struct {
	// Registry — реестр типов блоков.
	Registry *blocks.Registry

	// NodeRuns — хранилище записей NodeRun.
	NodeRuns NodeRunStore

	// Logs — хранилище журнала run.
	Logs LogStore

	// HTTPClient — клиент для исходящих вызовов блоков.
	// nil — клиент с таймаутом по умолчанию.
	HTTPClient *http.Client

	// Blobs — writer в blob-хранилище для блоков записи.
	Blobs storage.Writer

	// Logger — structured logger процесса.
	Logger *slog.Logger
}

// New создаёт новый Executor.
func New(cfg Config) *Executor {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		registry: cfg.Registry,
		nodeRuns: cfg.NodeRuns,
		logs:     cfg.Logs,
		http:     httpClient,
		blobs:    cfg.Blobs,
		logger:   logger,
	}
}

// Execute выполняет граф run от первого узла до терминального исхода.
//
// Узлы выполняются по одному в топологическом порядке. Вход каждого
// узла собирается из его params, outputs прямых родителей и
// trigger payload run. Первая ошибка узла останавливает выполнение:
// возвращается failed и outputs всех уже успевших узлов.
//
// Каждый запуск узла фиксируется записью NodeRun: created в running
// перед вызовом блока, обновлена терминальным статусом после. Узлы,
// до которых выполнение не дошло, записей не получают.
func (e *Executor) Execute(ctx context.Context, run *domain.Run, g *engine.Graph) (domain.RunStatus, map[string]map[string]any) {
	logger := telemetry.WithRunID(e.logger, run.ID.String())
	sink := &logSink{runID: run.ID, logs: e.logs, logger: logger}
	rc := blocks.NewRunContext(e.http, e.blobs, sink)

	outputs := make(map[string]map[string]any, g.Size())

	logger.Info("run execution started", "nodes", g.Size())
	sink.Append(ctx, "", domain.LogLevelInfo, "run started",
		map[string]any{"nodes": g.Size(), "trigger": run.TriggerType})

	for _, nodeID := range g.Order() {
		if err := ctx.Err(); err != nil {
			logger.Error("run cancelled", "node_id", nodeID, "error", err)
			sink.Append(context.WithoutCancel(ctx), nodeID, domain.LogLevelError,
				"run cancelled", map[string]any{"error": err.Error()})
			return domain.RunStatusFailed, outputs
		}

		node := g.Node(nodeID)
		if ok := e.runNode(ctx, run, node, g.Parents(nodeID), outputs, rc, sink, logger); !ok {
			return domain.RunStatusFailed, outputs
		}
	}

	sink.Append(ctx, "", domain.LogLevelInfo, "run succeeded",
		map[string]any{"nodes": len(outputs)})
	logger.Info("run execution succeeded", "nodes", len(outputs))

	return domain.RunStatusSucceeded, outputs
}

// runNode выполняет один узел. Успешный output кладётся в outputs;
// false означает ошибку узла и остановку run.
func (e *Executor) runNode(
	ctx context.Context,
	run *domain.Run,
	node *domain.Node,
	parents []string,
	outputs map[string]map[string]any,
	rc *blocks.RunContext,
	sink *logSink,
	logger *slog.Logger,
) bool {
	nodeLogger := telemetry.WithNodeID(logger, node.ID)

	// Только прямые родители. К этому моменту все они уже выполнены:
	// топологический порядок гарантирует это.
	upstream := make(map[string]map[string]any, len(parents))
	for _, parentID := range parents {
		upstream[parentID] = outputs[parentID]
	}

	in := blocks.NewInput(node.ID, node.Params, upstream, run.TriggerPayload)

	nr := domain.NewNodeRun(run.ID, node.ID, node.Type, in.Snapshot())
	if err := e.nodeRuns.Create(ctx, nr); err != nil {
		nodeLogger.Error("failed to create node run", "error", err)
		sink.Append(ctx, node.ID, domain.LogLevelError, "node bookkeeping failed",
			map[string]any{"error": err.Error()})
		return false
	}

	nodeLogger.Info("node started", "block_type", node.Type)
	sink.Append(ctx, node.ID, domain.LogLevelInfo, "node started",
		map[string]any{"block_type": node.Type})

	started := time.Now()
	output, err := e.registry.Run(ctx, node.Type, in, rc.ForNode(node.ID))
	elapsed := time.Since(started)

	if err != nil {
		telemetry.ObserveNode(node.Type, string(domain.NodeRunStatusFailed), elapsed)

		nr.MarkFailed(errorDetail(node, err))
		if uerr := e.nodeRuns.Update(ctx, nr); uerr != nil {
			nodeLogger.Error("failed to persist node failure", "error", uerr)
		}

		nodeLogger.Error("node failed", "block_type", node.Type, "error", err)
		sink.Append(ctx, node.ID, domain.LogLevelError, "node failed",
			map[string]any{"block_type": node.Type, "error": err.Error()})
		return false
	}

	telemetry.ObserveNode(node.Type, string(domain.NodeRunStatusSucceeded), elapsed)

	nr.MarkSucceeded(output)
	if uerr := e.nodeRuns.Update(ctx, nr); uerr != nil {
		// Output узла уже есть; терять run из-за bookkeeping не нужно.
		nodeLogger.Error("failed to persist node success", "error", uerr)
	}

	outputs[node.ID] = output

	nodeLogger.Info("node succeeded", "block_type", node.Type, "elapsed", elapsed)
	sink.Append(ctx, node.ID, domain.LogLevelInfo, "node succeeded",
		map[string]any{"block_type": node.Type, "elapsed_ms": elapsed.Milliseconds()})

	return true
}

// errorDetail собирает структурированную ошибку узла для error_json.
func errorDetail(node *domain.Node, err error) map[string]any {
	detail := map[string]any{
		"message":    err.Error(),
		"node_id":    node.ID,
		"block_type": node.Type,
	}
	switch {
	case errors.Is(err, blocks.ErrUnknownBlockType):
		detail["kind"] = "unknown_block_type"
	case errors.Is(err, blocks.ErrInvalidParams):
		detail["kind"] = "invalid_params"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		detail["kind"] = "cancelled"
	default:
		detail["kind"] = "block_error"
	}
	return detail
}

// logSink пишет записи журнала run в LogStore.
// Ошибки записи глотаются: падение логирования не валит run.
type logSink struct {
	runID  uuid.UUID
	logs   LogStore
	logger *slog.Logger
}

func (s *logSink) Append(ctx context.Context, nodeID, level, message string, data map[string]any) {
	entry := &domain.LogEntry{
		ID:      uuid.New(),
		RunID:   s.runID,
		NodeID:  nodeID,
		TS:      time.Now().UTC(),
		Level:   level,
		Message: message,
		Data:    data,
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append run log",
			"node_id", nodeID,
			"message", message,
			"error", fmt.Errorf("log append: %w", err),
		)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/orchestrator"
	"github.com/shaiso/Cascade/internal/repo"
)

// defaultLogLimit — количество лог-записей на страницу по умолчанию.
const defaultLogLimit = 500

// StartRun запускает run вручную.
// POST /api/v1/workflows/{id}/runs
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	// Пустое тело допустимо: run без payload.
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := h.workflows.GetByID(r.Context(), workflowID)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	run, err := h.orch.StartRunFor(r.Context(), wf, domain.TriggerManual, req.Payload)
	if h.handleStartRunError(w, err) {
		return
	}

	Accepted(w, RunFromDomain(*run))
}

// TriggerWebhook запускает run по webhook slug.
// POST /api/v1/hooks/{slug}
func (h *Handler) TriggerWebhook(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		BadRequest(w, "missing webhook slug")
		return
	}

	// Тело webhook становится trigger payload; невалидный JSON — пусто.
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		payload = nil
	}

	wf, err := h.workflows.GetByWebhookSlug(r.Context(), slug)
	if HandleRepoError(w, h.logger, err, "webhook not found") {
		return
	}

	run, err := h.orch.StartRunFor(r.Context(), wf, domain.TriggerWebhook, payload)
	if h.handleStartRunError(w, err) {
		return
	}

	Accepted(w, RunFromDomain(*run))
}

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?workflow_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{Limit: 50}

	if workflowIDStr := r.URL.Query().Get("workflow_id"); workflowIDStr != "" {
		workflowID, err := uuid.Parse(workflowIDStr)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		filter.WorkflowID = &workflowID
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
	}

	filter.Limit = queryInt(r, "limit", filter.Limit)
	filter.Offset = queryInt(r, "offset", 0)

	runs, err := h.runs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает run вместе с его node runs.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.orch.GetRunStatus(r.Context(), id)
	if errors.Is(err, orchestrator.ErrRunNotFound) {
		NotFound(w, "run not found")
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	nodeRuns, err := h.nodeRuns.ListByRun(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	detail := RunDetailResponse{
		RunResponse: RunFromDomain(*run),
		NodeRuns:    make([]NodeRunResponse, len(nodeRuns)),
	}
	for i, nr := range nodeRuns {
		detail.NodeRuns[i] = NodeRunFromDomain(nr)
	}

	Success(w, detail)
}

// GetRunLogs возвращает журнал run в хронологическом порядке.
// GET /api/v1/runs/{id}/logs?limit=...&offset=...
func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	limit := queryInt(r, "limit", defaultLogLimit)
	offset := queryInt(r, "offset", 0)

	entries, err := h.orch.GetLogs(r.Context(), id, limit, offset)
	if errors.Is(err, orchestrator.ErrRunNotFound) {
		NotFound(w, "run not found")
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]LogEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LogEntryFromDomain(e)
	}

	List(w, result, len(result))
}

// CancelRun отменяет выполнение активного run.
// POST /api/v1/runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.orch.GetRunStatus(r.Context(), id)
	if errors.Is(err, orchestrator.ErrRunNotFound) {
		NotFound(w, "run not found")
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	if run.IsFinished() {
		InvalidState(w, "run is already finished")
		return
	}

	if !h.orch.CancelRun(id) {
		InvalidState(w, "run is not active")
		return
	}

	Accepted(w, RunFromDomain(*run))
}

// handleStartRunError преобразует ошибку StartRun в HTTP ответ.
func (h *Handler) handleStartRunError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, orchestrator.ErrWorkflowNotFound):
		NotFound(w, "workflow not found")
	case errors.Is(err, orchestrator.ErrInvalidGraph):
		InvalidGraph(w, err.Error())
	case errors.Is(err, orchestrator.ErrOrchestratorStopped):
		Error(w, http.StatusServiceUnavailable, ErrCodeInvalidState, "server is shutting down")
	default:
		InternalError(w, h.logger, err)
	}
	return true
}

// queryInt парсит целочисленный query-параметр с дефолтом.
func queryInt(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
